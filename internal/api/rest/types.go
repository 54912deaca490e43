package rest

import "github.com/voicegate/fraud-manager-backend/internal/domain/fraud"

// Request bodies follow the Dialogflow CX webhook format. Unknown fields
// are ignored; only the paths the engine needs are modeled.

// TelephonyPayload carries the caller identity forwarded by the
// telephony integration.
type TelephonyPayload struct {
	CallerID string `json:"caller_id" validate:"required"`
}

// DialogflowPayload is the payload object of a webhook request.
type DialogflowPayload struct {
	Telephony TelephonyPayload `json:"telephony" validate:"required"`
}

// CheckRequest is the body of POST /phone-numbers:check/.
type CheckRequest struct {
	Payload DialogflowPayload `json:"payload" validate:"required"`
}

// QueryParameters holds the session parameters collected by the agent.
type QueryParameters struct {
	NationalID string `json:"national_id" validate:"required"`
}

// SessionInfo is the sessionInfo object of a webhook request.
type SessionInfo struct {
	Parameters QueryParameters `json:"parameters" validate:"required"`
}

// QueryRequest is the body of POST /queries/.
type QueryRequest struct {
	Payload     DialogflowPayload `json:"payload" validate:"required"`
	SessionInfo SessionInfo       `json:"sessionInfo" validate:"required"`
}

// SessionParameters sets the block session parameter that steers the
// agent flow.
type SessionParameters struct {
	Block bool `json:"block"`
}

// ResponseSessionInfo is the sessionInfo object of a webhook response.
type ResponseSessionInfo struct {
	Parameters SessionParameters `json:"parameters"`
}

// TextMessage is one fulfillment text message.
type TextMessage struct {
	Text struct {
		Text []string `json:"text"`
	} `json:"text"`
}

// FulfillmentResponse carries the messages spoken back to the caller.
type FulfillmentResponse struct {
	Messages []TextMessage `json:"messages"`
}

// WebhookResponse is the fulfillment JSON Dialogflow CX expects. The
// field casing is uneven (sessionInfo camelCase, fulfillment_response
// snake_case) because that is the wire format the agent consumes.
type WebhookResponse struct {
	SessionInfo         ResponseSessionInfo `json:"sessionInfo"`
	FulfillmentResponse FulfillmentResponse `json:"fulfillment_response"`
}

// StatusResponse is the plain acknowledgement for non-fulfillment
// endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// dialogflowMessages maps engine message keys to the Spanish-facing
// strings spoken to the caller.
var dialogflowMessages = map[fraud.MessageKey]string{
	fraud.MessageErrorExtractingParams: "No se pudo obtener el número de teléfono o el rut.",
	fraud.MessageBlockedNumber:         "Este número de teléfono ha sido bloqueado por actividad sospechosa.",
	fraud.MessageAllowedNumber:         "Número de teléfono permitido.",
}

// buildWebhookResponse assembles the Dialogflow fulfillment body for a
// decision.
func buildWebhookResponse(block bool, message string) WebhookResponse {
	var msg TextMessage
	msg.Text.Text = []string{message}

	return WebhookResponse{
		SessionInfo: ResponseSessionInfo{
			Parameters: SessionParameters{Block: block},
		},
		FulfillmentResponse: FulfillmentResponse{
			Messages: []TextMessage{msg},
		},
	}
}

func decisionResponse(d fraud.Decision) WebhookResponse {
	return buildWebhookResponse(d.Blocked, dialogflowMessages[d.Message])
}
