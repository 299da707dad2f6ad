package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Orgcal API",
        "description": "Organization calendars with free/busy, free slot and calendar view queries",
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
        {"name": "Auth", "description": "Login and current user"},
        {"name": "Calendar", "description": "Calendar event management"},
        {"name": "Availability", "description": "Busy intervals, free slots and calendar views"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user claims",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Create calendar event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCalendarEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Organization not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/my": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Events the current user created or attends",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/my/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Busy intervals of the current user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/my/free-slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "Free slots of the current user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/duration"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/{id}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Get calendar event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Calendar"],
                "summary": "Update calendar event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCalendarEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Calendar"],
                "summary": "Delete calendar event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/{id}/attendance": {
            "put": {
                "tags": ["Calendar"],
                "summary": "RSVP to a calendar event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Paginated organization events",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/date-range": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Organization events overlapping a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/busy": {
            "get": {
                "tags": ["Availability"],
                "summary": "Merged busy intervals of an organization",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Organization not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/free-slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "Free slots shared by an organization",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/duration"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/calendar-view": {
            "get": {
                "tags": ["Availability"],
                "summary": "Organization events bucketed by local day and hour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/timeZone"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/calendar-view/export": {
            "get": {
                "tags": ["Availability"],
                "summary": "Download the organization calendar",
                "produces": ["text/csv", "application/pdf", "text/calendar"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/timeZone"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "ics"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/all-members": {
            "get": {
                "tags": ["Availability"],
                "summary": "Visible organization events grouped by member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/timeZone"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-events/organization/{organizationId}/import": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Import events from an iCalendar file",
                "consumes": ["multipart/form-data", "text/calendar"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/organizationId"},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "organizationId": {"name": "organizationId", "in": "path", "required": true, "type": "string"},
        "startDate": {"name": "startDate", "in": "query", "required": true, "type": "string", "description": "RFC3339 or YYYY-MM-DD"},
        "endDate": {"name": "endDate", "in": "query", "required": true, "type": "string", "description": "RFC3339 or YYYY-MM-DD"},
        "duration": {"name": "duration", "in": "query", "type": "integer", "description": "Minimum slot length in minutes"},
        "timeZone": {"name": "timeZone", "in": "query", "type": "string", "description": "IANA time zone"}
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateCalendarEventRequest": {
            "type": "object",
            "required": ["organizationId", "title", "startDate", "endDate"],
            "properties": {
                "organizationId": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "startDate": {"type": "string", "format": "date-time"},
                "endDate": {"type": "string", "format": "date-time"},
                "eventType": {"type": "string", "enum": ["personal", "meeting", "event"]},
                "availability": {"type": "string", "enum": ["busy", "free", "tentative"]},
                "isVisible": {"type": "boolean"},
                "recurrenceRule": {"type": "string"},
                "timeZone": {"type": "string"},
                "attendeeIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateCalendarEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "startDate": {"type": "string", "format": "date-time"},
                "endDate": {"type": "string", "format": "date-time"},
                "eventType": {"type": "string", "enum": ["personal", "meeting", "event"]},
                "availability": {"type": "string", "enum": ["busy", "free", "tentative"]},
                "isVisible": {"type": "boolean"},
                "recurrenceRule": {"type": "string"},
                "timeZone": {"type": "string"}
            }
        },
        "AttendanceRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["going", "maybe", "declined"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
