package iemodel

import "strings"

const (
	descriptionExt = ".xml"
	weightsExt     = ".bin"
)

// ModelFiles derives the description and weights paths for a model. path may
// be the common stem or end in either extension; a recognized four character
// suffix is stripped before both extensions are appended.
func ModelFiles(path string) (xml, bin string) {
	if strings.HasSuffix(path, descriptionExt) || strings.HasSuffix(path, weightsExt) {
		path = path[:len(path)-4]
	}
	return path + descriptionExt, path + weightsExt
}
