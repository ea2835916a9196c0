/*
Package validation provides field-level validation for wizard submissions.

Rules validate a single string field and return a human-readable reason.
A Schema maps field names to rules; Validate checks a set of submitted
values and aggregates every failure into an AggregateError so the host can
render all field messages at once.

The messages of the built-in rules are part of the user-facing contract:

	name:   "Name too short"
	mobile: "Invalid mobile number"
	otp:    "Invalid OTP"
*/
package validation
