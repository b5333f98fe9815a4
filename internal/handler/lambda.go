package handler

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/google/uuid"
)

// Handle serves an API Gateway proxy invocation. Failures are reported in
// the response, so the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := uuid.NewString()
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	logger := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("request_id", requestID, "method", req.HTTPMethod)
	ctx = log.NewContext(ctx, logger)
	logger.Info("handling lambda invocation")

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger.Warn("undecodable body", "error", err)
			res := encode(http.StatusBadRequest, corsHeaders(), relay.Failure(fault.NewValidation("Invalid request body")))
			return toProxyResponse(res), nil
		}
		body = decoded
	}

	return toProxyResponse(h.dispatch(ctx, req.HTTPMethod, body)), nil
}

func toProxyResponse(res response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: res.status,
		Headers:    res.headers,
		Body:       res.body,
	}
}
