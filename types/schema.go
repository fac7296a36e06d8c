package types

// Output-schema builders for resource discovery. The maps produced here are
// attached to PaymentRequirements.OutputSchema so crawlers can learn how to
// call a paid endpoint.

// DiscoverableHTTPGet returns an output schema advertising a discoverable
// HTTP GET resource. queryParams may be nil.
func DiscoverableHTTPGet(queryParams map[string]string) map[string]interface{} {
	input := map[string]interface{}{
		"discoverable": true,
		"type":         "http",
		"method":       "get",
	}

	if len(queryParams) > 0 {
		input["queryParams"] = queryParams
	}

	return map[string]interface{}{"input": input}
}

// DiscoverableHTTPPost returns an output schema advertising a discoverable
// HTTP POST resource with a JSON body described by bodyFields.
func DiscoverableHTTPPost(bodyFields map[string]interface{}) map[string]interface{} {
	input := map[string]interface{}{
		"discoverable": true,
		"type":         "http",
		"method":       "post",
		"bodyType":     "json",
	}

	if len(bodyFields) > 0 {
		input["bodyFields"] = bodyFields
	}

	return map[string]interface{}{"input": input}
}
