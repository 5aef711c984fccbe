// Package validation validates configuration sections and API requests.
//
// Struct tag validation uses go-playground/validator with two extra tags:
// "lang" for optional ISO-639-1 language codes and "mediaurl" for http(s)
// media links. Failures are returned as INVALID_INPUT AppErrors carrying
// per-field details.
//
//	type TranslateRequest struct {
//	    Text           string `json:"text" validate:"required"`
//	    TargetLanguage string `json:"target_language" validate:"required"`
//	}
//	err := validation.Validate(req)
//
// The programmatic Validator collects errors for checks that tags cannot express:
//
//	v := validation.New()
//	v.RequiredUUID("id", id).OneOf("format", f, formats)
//	err := v.Validate()
package validation
