// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/items": {
            "get": {
                "description": "List every item, or the items whose name contains q (case-insensitive)",
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List items",
                "parameters": [
                    {"type": "string", "description": "Name keyword", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/ports.ItemListResponse"}
                    }
                }
            },
            "post": {
                "description": "Add an item; stock and price must be 0 or greater",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create an item",
                "parameters": [
                    {
                        "description": "Item data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ports.CreateItemRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/items/summary": {
            "get": {
                "description": "Item count, low-stock count, units and stock value over the items matching q",
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Inventory summary",
                "parameters": [
                    {"type": "string", "description": "Name keyword", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Summary"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get item by ID",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Replace name, stock and price of an item, keeping its id and position",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Update an item",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Item data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ports.UpdateItemRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Remove an item. Deleting an unknown id also succeeds.",
                "tags": ["items"],
                "summary": "Delete an item",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "integer"},
                "stock": {"type": "integer"}
            }
        },
        "entities.Summary": {
            "type": "object",
            "properties": {
                "low_stock_items": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_units": {"type": "integer"},
                "total_value": {"type": "integer"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "ports.CreateItemRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "price": {"type": "integer", "minimum": 0},
                "stock": {"type": "integer", "minimum": 0}
            }
        },
        "ports.ItemListResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/entities.Item"}},
                "query": {"type": "string"},
                "summary": {"$ref": "#/definitions/entities.Summary"}
            }
        },
        "ports.UpdateItemRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "price": {"type": "integer", "minimum": 0},
                "stock": {"type": "integer", "minimum": 0}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "StockManager API",
	Description:      "Inventory item store: list, search, create, update and delete stock items",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
