package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Troop Timetable API",
        "description": "Builds weekly troop timetables from the curriculum and reports load and progress statistics.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetable", "description": "Timetable construction and export"},
        {"name": "Statistics", "description": "Teacher load, troop progress and course length"}
    ],
    "paths": {
        "/schedule": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Start a timetable build",
                "description": "Deletes every lesson and schedules the term in the background.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/BuildTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/BuildStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Build already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Timetable"],
                "summary": "Build progress",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BuildStatus"}}
                }
            }
        },
        "/schedule/exports": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Render the timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ExportTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ExportTimetableResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a rendered timetable",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"in": "path", "name": "token", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Expired or invalid link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics/teachers-load": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Teacher load",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "date_from", "type": "string", "format": "date"},
                    {"in": "query", "name": "date_to", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/TeacherLoad"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics/troops": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Progress of every troop",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/TroopProgress"}}}
                }
            }
        },
        "/statistics/troops/{id}": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Progress of a troop",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TroopProgress"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/specialties/{id}/course-length": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Course length per discipline and term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/DisciplineCourseLength"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BuildTimetableRequest": {
            "type": "object",
            "required": ["start_date", "term_length"],
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "term_length": {"type": "integer", "minimum": 1}
            }
        },
        "BuildStatus": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "status": {"type": "string", "enum": ["IDLE", "QUEUED", "BUILD_PROCESSING", "FINISHED", "FAILED"]},
                "current_term_load": {"type": "integer"},
                "total_term_load": {"type": "integer"},
                "progress": {"type": "number"},
                "start_date": {"type": "string", "format": "date"},
                "term_length": {"type": "integer"},
                "started_at": {"type": "string", "format": "date-time"},
                "finished_at": {"type": "string", "format": "date-time"},
                "error": {"type": "string"}
            }
        },
        "ExportTimetableRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["xlsx", "csv", "pdf"]},
                "troop_id": {"type": "string"},
                "date_from": {"type": "string", "format": "date"},
                "date_to": {"type": "string", "format": "date"}
            }
        },
        "ExportTimetableResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "format": {"type": "string"},
                "url": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "TeacherLoad": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "name": {"type": "string"},
                "statistics": {
                    "type": "object",
                    "properties": {
                        "absolute": {"type": "integer"},
                        "relative": {"type": "number"}
                    }
                }
            }
        },
        "TroopProgress": {
            "type": "object",
            "properties": {
                "troop_id": {"type": "string"},
                "code": {"type": "string"},
                "total_progress": {"type": "number"},
                "by_disciplines": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "discipline_id": {"type": "string"},
                            "name": {"type": "string"},
                            "progress": {"type": "number"}
                        }
                    }
                }
            }
        },
        "DisciplineCourseLength": {
            "type": "object",
            "properties": {
                "discipline_id": {"type": "string"},
                "discipline": {"type": "string"},
                "terms": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "term": {"type": "integer"},
                            "lessons": {"type": "integer"},
                            "self_education": {"type": "integer"}
                        }
                    }
                }
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
