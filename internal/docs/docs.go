// Package docs registers the Swagger 2.0 description of the API with swag.
// The server serves it at /docs/doc.json and the Swagger UI at /docs/.
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
    "securityDefinitions": {
        "basic": {"type": "basic"},
        "bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"basic": []}, {"bearer": []}],
    "paths": {
        "/": {
            "get": {
                "summary": "API index",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Absolute URLs of the collections", "schema": {"$ref": "#/definitions/Index"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/snippets/": {
            "get": {
                "summary": "List snippets",
                "tags": ["snippets"],
                "produces": ["application/json"],
                "parameters": [{"name": "page", "in": "query", "type": "integer", "minimum": 1}],
                "responses": {
                    "200": {"description": "One page of snippets", "schema": {"$ref": "#/definitions/SnippetPage"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Invalid page", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "post": {
                "summary": "Create a snippet owned by the caller",
                "tags": ["snippets"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "snippet", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SnippetInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Snippet"}},
                    "400": {"description": "Validation errors by field", "schema": {"$ref": "#/definitions/FieldErrors"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/snippets/{id}/": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "summary": "Retrieve a snippet",
                "tags": ["snippets"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Snippet"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "summary": "Replace a snippet (owner only)",
                "tags": ["snippets"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "snippet", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SnippetInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Snippet"}},
                    "400": {"description": "Validation errors by field", "schema": {"$ref": "#/definitions/FieldErrors"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "patch": {
                "summary": "Change some fields of a snippet (owner only)",
                "tags": ["snippets"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "snippet", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SnippetInput"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Snippet"}},
                    "400": {"description": "Validation errors by field", "schema": {"$ref": "#/definitions/FieldErrors"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "summary": "Delete a snippet (owner only)",
                "tags": ["snippets"],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/users/": {
            "get": {
                "summary": "List users",
                "tags": ["users"],
                "produces": ["application/json"],
                "parameters": [{"name": "page", "in": "query", "type": "integer", "minimum": 1}],
                "responses": {
                    "200": {"description": "One page of users", "schema": {"$ref": "#/definitions/UserPage"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Invalid page", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/users/{id}/": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "summary": "Retrieve a user",
                "tags": ["users"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "401": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api-auth/login/": {
            "post": {
                "summary": "Open a session (sets the sessionid cookie)",
                "tags": ["auth"],
                "security": [],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [{"name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Credentials"}}],
                "responses": {
                    "200": {"description": "Signed in"},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/FieldErrors"}},
                    "401": {"description": "Bad credentials", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api-auth/logout/": {
            "post": {
                "summary": "End the current session",
                "tags": ["auth"],
                "security": [],
                "responses": {"204": {"description": "Signed out"}}
            }
        },
        "/api-auth/token/": {
            "post": {
                "summary": "Issue a bearer token",
                "tags": ["auth"],
                "security": [],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [{"name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Credentials"}}],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/Token"}},
                    "401": {"description": "Bad credentials", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Snippet": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string", "maxLength": 100},
                "code": {"type": "string"},
                "linenos": {"type": "boolean"},
                "language": {"type": "string", "default": "python"},
                "style": {"type": "string", "default": "friendly"},
                "owner": {"type": "string", "readOnly": true}
            }
        },
        "SnippetInput": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "title": {"type": "string", "maxLength": 100},
                "code": {"type": "string"},
                "linenos": {"type": "boolean"},
                "language": {"type": "string"},
                "style": {"type": "string"}
            }
        },
        "SnippetPage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "next": {"type": "string", "x-nullable": true},
                "previous": {"type": "string", "x-nullable": true},
                "results": {"type": "array", "items": {"$ref": "#/definitions/Snippet"}}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "snippets": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "UserPage": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "next": {"type": "string", "x-nullable": true},
                "previous": {"type": "string", "x-nullable": true},
                "results": {"type": "array", "items": {"$ref": "#/definitions/User"}}
            }
        },
        "Index": {
            "type": "object",
            "properties": {
                "snippets": {"type": "string"},
                "users": {"type": "string"}
            }
        },
        "Credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Token": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "FieldErrors": {
            "type": "object",
            "additionalProperties": {"type": "array", "items": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Snippets API",
	Description:      "Multi-user code snippet store. Anyone signed in can read; only owners can change their snippets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
