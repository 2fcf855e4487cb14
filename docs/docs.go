// Package docs holds the Swagger description of the serial monitor API
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
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ports": {
            "get": {
                "tags": ["Ports"],
                "summary": "List ports",
                "parameters": [
                    {"type": "string", "default": "all", "enum": ["all", "serial", "tcp"], "name": "type", "in": "query"}
                ],
                "responses": {"200": {"description": "Ports listed"}, "400": {"description": "Unknown scanner type"}}
            }
        },
        "/ports/baud-rates": {
            "get": {"tags": ["Ports"], "summary": "List baud rates", "responses": {"200": {"description": "Baud rates"}}}
        },
        "/ports/scanners": {
            "get": {"tags": ["Ports"], "summary": "List scanners", "responses": {"200": {"description": "Scanner types"}}}
        },
        "/commands": {
            "get": {"tags": ["Ports"], "summary": "List frame commands", "responses": {"200": {"description": "Command catalogue"}}}
        },
        "/session": {
            "get": {"tags": ["Session"], "summary": "Get session status", "responses": {"200": {"description": "Session status"}}}
        },
        "/session/config": {
            "put": {
                "tags": ["Session"],
                "summary": "Configure the device",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ConfigureRequest"}}
                ],
                "responses": {"200": {"description": "Configuration applied"}, "400": {"description": "Invalid request"}, "409": {"description": "Session is connected or configuration invalid"}}
            }
        },
        "/session/connection/toggle": {
            "post": {"tags": ["Session"], "summary": "Toggle connection", "responses": {"200": {"description": "Connection toggled"}, "404": {"description": "Port not available"}, "409": {"description": "Recording in progress"}, "502": {"description": "Port could not be opened"}}}
        },
        "/session/connection/disconnect": {
            "post": {"tags": ["Session"], "summary": "Force disconnect", "responses": {"200": {"description": "Disconnected"}}}
        },
        "/session/send": {
            "post": {
                "tags": ["Session"],
                "summary": "Send bytes",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SendRequest"}}
                ],
                "responses": {"200": {"description": "Message sent"}, "400": {"description": "Invalid payload"}, "409": {"description": "Not connected"}, "502": {"description": "Write failed"}}
            }
        },
        "/session/recording/folder": {
            "put": {
                "tags": ["Recording"],
                "summary": "Set recording folder",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FolderRequest"}}
                ],
                "responses": {"200": {"description": "Folder set"}, "400": {"description": "Invalid request"}}
            }
        },
        "/session/recording/folder/pick": {
            "post": {"tags": ["Recording"], "summary": "Pick recording folder", "responses": {"200": {"description": "Folder picked"}, "409": {"description": "Prompt cancelled"}, "503": {"description": "No client connected"}, "504": {"description": "Prompt timed out"}}}
        },
        "/session/recording/toggle": {
            "post": {"tags": ["Recording"], "summary": "Toggle recording", "responses": {"200": {"description": "Recording toggled"}, "409": {"description": "Not connected or folder not set"}, "500": {"description": "File could not be created"}}}
        },
        "/sessions": {
            "get": {
                "tags": ["History"],
                "summary": "List sessions",
                "parameters": [
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"},
                    {"type": "string", "name": "path", "in": "query"}
                ],
                "responses": {"200": {"description": "Sessions listed"}, "400": {"description": "Invalid limit"}}
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["History"],
                "summary": "Get session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Session retrieved"}, "404": {"description": "Session not found"}}
            }
        }
    },
    "definitions": {
        "handler.ConfigureRequest": {
            "type": "object",
            "required": ["path", "baud_rate"],
            "properties": {
                "path": {"type": "string"},
                "baud_rate": {"type": "integer"},
                "frame_mode": {"type": "string", "enum": ["fixed", "raw", "text"]}
            }
        },
        "handler.FolderRequest": {
            "type": "object",
            "required": ["path"],
            "properties": {"path": {"type": "string"}}
        },
        "handler.FrameRequest": {
            "type": "object",
            "properties": {
                "command_id": {"type": "integer"},
                "hardware_id": {"type": "integer"},
                "value": {"type": "integer"}
            }
        },
        "handler.SendRequest": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"type": "integer"}},
                "hex": {"type": "string"},
                "frame": {"$ref": "#/definitions/handler.FrameRequest"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8085",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Serial Monitor API",
	Description:      "Single-device serial session manager with frame decoding and raw traffic recording",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
