package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Scheduler API",
        "description": "Constraint based timetable generation, editing and export",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Catalog", "description": "Rooms, subjects, instructors and the calendar"},
        {"name": "Timetables", "description": "Generation and inspection of timetables"},
        {"name": "Sessions", "description": "Manual edits on a generated timetable"},
        {"name": "Exports", "description": "CSV and PDF renderings"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "A dependency is degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/catalog": {
            "put": {
                "tags": ["Catalog"],
                "summary": "Replace the catalog",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CatalogSummaryEnvelope"}},
                    "400": {"description": "Invalid catalog", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/catalog/summary": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Summarise the loaded catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CatalogSummaryEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/TimetableEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Fixed sessions conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "instructor", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Add a session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Placement violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/sessions/{sessionId}": {
            "patch": {
                "tags": ["Sessions"],
                "summary": "Move a session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionPatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Placement violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Remove a session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "force", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/stats": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Timetable statistics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StatsEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/optimize": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Reduce idle gaps",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TimetableEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/save": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Persist a timetable version",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Timetable has conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Persistence disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "groupBy", "in": "query", "type": "string", "enum": ["week", "instructor"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "404": {"description": "Unknown or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SessionInput": {
            "type": "object",
            "required": ["subjectId", "roomId", "week", "day", "startTime"],
            "properties": {
                "id": {"type": "string"},
                "subjectId": {"type": "string"},
                "roomId": {"type": "string"},
                "week": {"type": "integer"},
                "year": {"type": "integer"},
                "day": {"type": "string"},
                "startTime": {"type": "string", "example": "09:00"},
                "durationMinutes": {"type": "integer"},
                "blockId": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "maxAttempts": {"type": "integer"},
                "randomize": {"type": "boolean"},
                "seed": {"type": "integer"},
                "workers": {"type": "integer"},
                "maxNodes": {"type": "integer"},
                "timeBudgetSeconds": {"type": "integer"},
                "optimize": {"type": "boolean"},
                "fixedSessions": {"type": "array", "items": {"$ref": "#/definitions/SessionInput"}}
            }
        },
        "SessionPatchRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "week": {"type": "integer"},
                "year": {"type": "integer"},
                "day": {"type": "string"},
                "startTime": {"type": "string"},
                "durationMinutes": {"type": "integer"}
            }
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "maxNodes": {"type": "integer"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "SessionView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "subjectId": {"type": "string"},
                "subjectName": {"type": "string"},
                "instructorIds": {"type": "array", "items": {"type": "string"}},
                "roomId": {"type": "string"},
                "roomName": {"type": "string"},
                "week": {"type": "integer"},
                "year": {"type": "integer"},
                "day": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "durationMinutes": {"type": "integer"},
                "blockId": {"type": "string"},
                "fixed": {"type": "boolean"},
                "date": {"type": "string"}
            }
        },
        "Timetable": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "complete": {"type": "boolean"},
                "requested": {"type": "integer"},
                "placed": {"type": "integer"},
                "attempts": {"type": "integer"},
                "deficits": {"type": "object", "additionalProperties": {"type": "integer"}},
                "durationMs": {"type": "integer"},
                "generatedAt": {"type": "string", "format": "date-time"},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionView"}}
            }
        },
        "TimetableStats": {
            "type": "object",
            "properties": {
                "totalSessions": {"type": "integer"},
                "fixedSessions": {"type": "integer"},
                "roomsUsed": {"type": "integer"},
                "instructorsUsed": {"type": "integer"},
                "weeksUsed": {"type": "integer"},
                "isValid": {"type": "boolean"},
                "complete": {"type": "boolean"},
                "gapMinutes": {"type": "integer"},
                "deficits": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "CatalogSummary": {
            "type": "object",
            "properties": {
                "subjects": {"type": "integer"},
                "rooms": {"type": "integer"},
                "instructors": {"type": "integer"},
                "weeks": {"type": "integer"},
                "requiredSessions": {"type": "integer"},
                "termStart": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "TimetableEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Timetable"},
                "meta": {"type": "object"}
            }
        },
        "StatsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/TimetableStats"},
                "meta": {"type": "object"}
            }
        },
        "CatalogSummaryEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/CatalogSummary"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
