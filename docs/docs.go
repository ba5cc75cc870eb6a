// Package docs registers the OpenAPI description of the inferd HTTP API with
// swag. Regenerate from the handler annotations with `swag init -g cmd/inferd/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "tags": ["models"],
                "summary": "List models",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/models/{id}": {
            "delete": {
                "tags": ["models"],
                "summary": "Unload a model",
                "parameters": [
                    {"type": "string", "description": "model id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models/{id}/requests/{slot}": {
            "get": {
                "tags": ["inference"],
                "summary": "Wait for an asynchronous inference",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "model id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "slot id", "name": "slot", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.WaitResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/infer": {
            "post": {
                "tags": ["inference"],
                "summary": "Run inference",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "input tensor", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.InferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InferResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/requests": {
            "post": {
                "tags": ["inference"],
                "summary": "Submit an asynchronous inference",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"description": "input tensor", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.InferRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.SubmitResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["status"],
                "summary": "Manager status",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.Tensor": {
            "type": "object",
            "properties": {
                "shape": {"type": "array", "items": {"type": "integer"}},
                "data": {"type": "array", "items": {"type": "number"}}
            }
        },
        "types.NamedTensor": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "shape": {"type": "array", "items": {"type": "integer"}},
                "data": {"type": "array", "items": {"type": "number"}}
            }
        },
        "types.InferRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "input": {"$ref": "#/definitions/types.Tensor"}
            }
        },
        "types.InferResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "multiple": {"type": "boolean"},
                "outputs": {"type": "array", "items": {"$ref": "#/definitions/types.NamedTensor"}}
            }
        },
        "types.SubmitResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "slot": {"type": "integer"}
            }
        },
        "types.WaitResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "slot": {"type": "integer"},
                "ready": {"type": "boolean"},
                "multiple": {"type": "boolean"},
                "outputs": {"type": "array", "items": {"$ref": "#/definitions/types.NamedTensor"}}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"type": "object"}}
            }
        },
        "types.StatusResponse": {
            "type": "object"
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "inferd API",
	Description:      "HTTP API for OpenVINO IR model inference.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
