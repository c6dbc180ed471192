// internal/workers/application/submit-application/validation.go
package submitapplication

import (
	"fmt"
	"strings"

	"shipinvest-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

var applicationSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"email", "fullName", "phoneNumber", "idType", "idNumber", "nationality"},
	"properties": map[string]interface{}{
		"email": map[string]interface{}{
			"type":   "string",
			"format": "email",
		},
		"fullName": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"phoneCountryCode": map[string]interface{}{
			"type": "string",
		},
		"phoneNumber": map[string]interface{}{
			"type":      "string",
			"minLength": 5,
		},
		"idType": map[string]interface{}{
			"type": "string",
			"enum": []string{models.IDTypePassport, models.IDTypeNationalID, models.IDTypeDrivingLicense},
		},
		"idNumber": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"nationality": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
}

func validateApplication(input *Input) error {
	schemaLoader := gojsonschema.NewGoLoader(applicationSchema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: schema evaluation error: %v", ErrValidationFailed, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}

	return nil
}
