package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/inferd/docs.go -d .,internal/httpapi`.
//
// @title           inferd API
// @version         1.0
// @description     HTTP API for OpenVINO IR model inference.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
