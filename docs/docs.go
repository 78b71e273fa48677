// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/api/health": {"get": {"tags": ["system"], "summary": "Gateway health", "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"tags": ["auth"], "summary": "Register operator", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Sign in", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/upload/dataset": {"post": {"tags": ["workflow"], "summary": "Upload dataset", "consumes": ["multipart/form-data"], "parameters": [{"in": "formData", "name": "file", "type": "file", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "ML service unreachable"}}}},
        "/api/upload/metadata": {"get": {"tags": ["workflow"], "summary": "Dataset metadata", "responses": {"200": {"description": "OK"}, "502": {"description": "ML service unreachable"}}}},
        "/api/dateranges/validate": {"post": {"tags": ["workflow"], "summary": "Validate date ranges", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "ML service unreachable"}}}},
        "/api/dateranges/summary.png": {"get": {"tags": ["workflow"], "summary": "Date ranges chart", "produces": ["image/png"], "responses": {"200": {"description": "OK"}}}},
        "/api/train": {"post": {"tags": ["workflow"], "summary": "Train model", "responses": {"200": {"description": "OK"}, "502": {"description": "ML service unreachable"}}}},
        "/api/training/metrics": {"get": {"tags": ["workflow"], "summary": "Training metrics", "responses": {"200": {"description": "OK"}}}},
        "/api/training/status": {"get": {"tags": ["workflow"], "summary": "Training status", "responses": {"200": {"description": "OK"}}}},
        "/api/training/confusion-matrix.png": {"get": {"tags": ["workflow"], "summary": "Confusion matrix", "produces": ["image/png"], "responses": {"200": {"description": "OK"}}}},
        "/api/training/roc.png": {"get": {"tags": ["workflow"], "summary": "ROC curve", "produces": ["image/png"], "responses": {"200": {"description": "OK"}}}},
        "/api/workflow": {"get": {"tags": ["workflow"], "summary": "Workflow snapshot", "responses": {"200": {"description": "OK"}}}},
        "/api/workflow/reset": {"post": {"tags": ["workflow"], "summary": "Reset workflow", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/live/start": {"post": {"tags": ["live"], "summary": "Start live simulation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "503": {"description": "Shutting down"}}}},
        "/api/live/stop": {"post": {"tags": ["live"], "summary": "Stop live simulation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/live/restart": {"post": {"tags": ["live"], "summary": "Restart live simulation", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/live/clear": {"post": {"tags": ["live"], "summary": "Clear live window", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/live/state": {"get": {"tags": ["live"], "summary": "Live state", "responses": {"200": {"description": "OK"}}}},
        "/api/live/history/events": {"get": {"tags": ["live"], "summary": "List session events", "parameters": [{"in": "query", "name": "from", "type": "string"}, {"in": "query", "name": "to", "type": "string"}, {"in": "query", "name": "type", "type": "string", "enum": ["START", "STOP", "RESTART", "CLEAR", "FETCH_ERROR"]}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/live/history/samples": {"get": {"tags": ["live"], "summary": "List recorded samples", "parameters": [{"in": "query", "name": "session", "type": "string"}, {"in": "query", "name": "limit", "type": "integer"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}}
    },
    "definitions": {
        "credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "IntelliInspect gateway API",
	Description:      "Workflow relay to the ML service and live simulation control.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
