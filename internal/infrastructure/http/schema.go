package httpapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schemaInitiate = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["orderId", "amount", "currency", "customer"],
  "properties": {
    "orderId": { "type": "string", "pattern": "^[A-Za-z0-9._:-]{1,64}$" },
    "amount": { "type": "integer", "minimum": 1 },
    "currency": { "type": "string", "pattern": "^[A-Za-z]{3}$" },
    "customer": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": { "type": "string", "pattern": "^[A-Za-z0-9._:@-]{1,64}$" },
        "name": { "type": "string", "pattern": "^[^|]{1,128}$" },
        "email": { "type": "string" },
        "phone": { "type": "string" }
      }
    },
    "metadata": {
      "type": "object",
      "additionalProperties": { "type": "string" }
    }
  }
}`

const schemaVerify = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["paymentId", "orderId"],
  "properties": {
    "paymentId": { "type": "string", "minLength": 1 },
    "orderId": { "type": "string", "minLength": 1 },
    "provider": { "type": "string", "enum": ["stripe", "razorpay", "payu", "paytm"] },
    "metadata": { "type": "object" }
  }
}`

const schemaCallback = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["orderId"],
  "properties": {
    "paymentId": { "type": "string" },
    "orderId": { "type": "string", "minLength": 1 },
    "status": { "type": "string" },
    "provider": { "type": "string" },
    "metadata": { "type": "object" }
  }
}`

const schemaUpdateSettings = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["provider", "config", "enabled"],
  "properties": {
    "provider": { "type": "string", "minLength": 1 },
    "config": { "type": "object" },
    "enabled": { "type": "boolean" }
  },
  "additionalProperties": false
}`

var (
	initiateLoader       = gojsonschema.NewStringLoader(schemaInitiate)
	verifyLoader         = gojsonschema.NewStringLoader(schemaVerify)
	callbackLoader       = gojsonschema.NewStringLoader(schemaCallback)
	updateSettingsLoader = gojsonschema.NewStringLoader(schemaUpdateSettings)
)

func validateJSONSchema(schemaLoader gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", errMalformedBody, strings.Join(msgs, "; "))
	}
	return nil
}
