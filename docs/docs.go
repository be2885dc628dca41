// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List tasks",
                "description": "All tasks ordered by due date and time, or those due on one date",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "task", "required": true, "schema": {"$ref": "#/definitions/CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/toggle": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Toggle completion",
                "description": "Completing a recurring task also creates its next-day occurrence",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ToggleTaskResponse"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete task",
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/calendar/{yearMonth}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Month calendar",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "yearMonth", "type": "string", "required": true, "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid month", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/schedule/day/{date}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Day schedule",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/schedule/week/{date}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Week schedule starting on Sunday",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/progress/{date}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Completion progress for a date",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "date", "type": "string", "required": true, "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/stamps": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Fully completed dates",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "month", "type": "string", "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/goals": {
            "get": {
                "tags": ["Goals"],
                "summary": "All monthly goals",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/goals/{yearMonth}": {
            "get": {
                "tags": ["Goals"],
                "summary": "Monthly goal",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "yearMonth", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GoalResponse"}}
                }
            },
            "put": {
                "tags": ["Goals"],
                "summary": "Set monthly goal",
                "description": "Empty text clears the goal",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "yearMonth", "type": "string", "required": true},
                    {"in": "body", "name": "goal", "required": true, "schema": {"$ref": "#/definitions/SetGoalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GoalResponse"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Delivered reminders",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "unseen", "type": "boolean"},
                    {"in": "query", "name": "ack", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications/permission": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Permission state",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Notifications"],
                "summary": "Grant permission to deliver reminders",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Permission denied"}
                }
            },
            "delete": {
                "tags": ["Notifications"],
                "summary": "Revoke inbox delivery permission",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Notifier cannot be revoked"}
                }
            }
        },
        "/notifications/sweep": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Run a due-soon sweep now",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SweepResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "dueDate": {"type": "string", "example": "2024-01-31"},
                "time": {"type": "string", "example": "09:00"},
                "isCompleted": {"type": "boolean"},
                "isRecurring": {"type": "boolean"},
                "tag": {"type": "string", "enum": ["仕事", "プライベート", "学校", "その他"]}
            }
        },
        "CreateTaskRequest": {
            "type": "object",
            "required": ["title", "dueDate"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "dueDate": {"type": "string", "example": "2024-01-31"},
                "time": {"type": "string", "example": "09:00"},
                "isRecurring": {"type": "boolean"},
                "tag": {"type": "string"}
            }
        },
        "ToggleTaskResponse": {
            "type": "object",
            "properties": {
                "task": {"$ref": "#/definitions/Task"},
                "successor": {"$ref": "#/definitions/Task"}
            }
        },
        "SetGoalRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "GoalResponse": {
            "type": "object",
            "properties": {
                "yearMonth": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "SweepResponse": {
            "type": "object",
            "properties": {
                "notified": {"type": "array", "items": {"$ref": "#/definitions/Task"}}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    },
    "security": [{"BearerAuth": []}]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Planner API",
	Description:      "Tasks, calendar views, monthly goals and due-soon reminders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
