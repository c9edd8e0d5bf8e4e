// Package docs holds the Swagger description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "description": "Create an email/password account and sign it in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Create account",
                "parameters": [
                    {"description": "Registration data", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticate with email and password and return tokens",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "description": "Rotate the refresh token (body or cookie) and issue a new pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Revoke the refresh token; always succeeds",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Get current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/auth/profile": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Update profile",
                "parameters": [
                    {"description": "Profile", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/collections/{collection}/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Add document",
                "parameters": [
                    {"type": "string", "description": "Collection name", "name": "collection", "in": "path", "required": true},
                    {"description": "Document fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.WriteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/collections/{collection}/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Get document",
                "parameters": [
                    {"type": "string", "description": "Collection name", "name": "collection", "in": "path", "required": true},
                    {"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Set document",
                "parameters": [
                    {"type": "string", "description": "Collection name", "name": "collection", "in": "path", "required": true},
                    {"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true},
                    {"description": "Document fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.WriteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/collections/{collection}/query": {
            "post": {
                "description": "Equality filters, one order field and a limit. Composite queries need a declared index (412 otherwise).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Query collection",
                "parameters": [
                    {"type": "string", "description": "Collection name", "name": "collection", "in": "path", "required": true},
                    {"description": "Query", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "412": {"description": "Precondition Failed", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "docstore.Filter": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "value": {}
            }
        },
        "docstore.Order": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "descending": {"type": "boolean"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.ProfileRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"}
            }
        },
        "handlers.QueryRequest": {
            "type": "object",
            "properties": {
                "filters": {"type": "array", "items": {"$ref": "#/definitions/docstore.Filter"}},
                "limit": {"type": "integer"},
                "order_by": {"$ref": "#/definitions/docstore.Order"}
            }
        },
        "handlers.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.WriteRequest": {
            "type": "object",
            "properties": {
                "data": {"type": "object", "additionalProperties": true}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "InvestorConnect API",
	Description:      "Identity and document store backend for InvestorConnect",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
