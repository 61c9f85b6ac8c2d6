package domain

import "time"

type UploadSchemaType string

const (
	SchemaTypeData   UploadSchemaType = "ios_data"
	SchemaTypeSurvey UploadSchemaType = "ios_survey"
)

type UploadFieldType string

const (
	FieldTypeString  UploadFieldType = "string"
	FieldTypeInt     UploadFieldType = "int"
	FieldTypeBoolean UploadFieldType = "boolean"
	FieldTypeFloat   UploadFieldType = "float"
)

type UploadFieldDefinition struct {
	Name          string          `json:"name"`
	Required      bool            `json:"required"`
	Type          UploadFieldType `json:"type"`
	FileExtension string          `json:"file_extension,omitempty"`
	MimeType      string          `json:"mime_type,omitempty"`
	MinAppVersion *int            `json:"min_app_version,omitempty"`
	MaxAppVersion *int            `json:"max_app_version,omitempty"`
	MaxLength     *int            `json:"max_length,omitempty"`
}

// UploadSchema is one revision of a named schema. Revisions under a schema ID
// form a monotonically increasing sequence; Version is the opaque
// optimistic-concurrency token for a single revision row.
type UploadSchema struct {
	SchemaID         string                  `json:"schema_id"`
	Revision         int                     `json:"revision,omitempty"`
	Version          *int64                  `json:"version,omitempty"`
	Name             string                  `json:"name"`
	SchemaType       UploadSchemaType        `json:"schema_type"`
	SurveyGUID       string                  `json:"survey_guid,omitempty"`
	SurveyCreatedOn  *time.Time              `json:"survey_created_on,omitempty"`
	FieldDefinitions []UploadFieldDefinition `json:"field_definitions"`
}
