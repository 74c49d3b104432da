// Package docs serves the OpenAPI description of the books catalog api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List all books",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/Book"}}
                    }
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Add a book",
                "parameters": [
                    {
                        "description": "book to add",
                        "name": "book",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/BookInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookCreatedResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/books/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "user credentials",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginInput"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AccessToken"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/APIError"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/protected": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Check user access",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ProtectedResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "requestid": {"type": "string"},
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "AccessToken": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"}
            }
        },
        "Book": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "year": {"type": "integer"}
            }
        },
        "BookCreatedResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/Book"}
            }
        },
        "BookInput": {
            "type": "object",
            "required": ["title", "author", "year"],
            "properties": {
                "title": {"type": "string", "minLength": 1, "maxLength": 100},
                "author": {"type": "string", "minLength": 1, "maxLength": 30},
                "year": {"type": "integer", "minimum": 500}
            }
        },
        "LoginInput": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ProtectedResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "string"},
                "uid": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Books Catalog API",
	Description:      "Add, list and fetch books. Log in to reach protected resources.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
