package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/rs/zerolog/log"
)

// LambdaInvoker is the part of the Lambda API the client needs.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaClient asks a deployed move function for a move.
type LambdaClient struct {
	api      LambdaInvoker
	function string
}

// NewLambdaClient uses the default AWS credential chain.
func NewLambdaClient(ctx context.Context, function string) (*LambdaClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &LambdaClient{api: lambda.NewFromConfig(awsCfg), function: function}, nil
}

func NewLambdaClientWithAPI(api LambdaInvoker, function string) *LambdaClient {
	return &LambdaClient{api: api, function: function}
}

// RequestMove invokes the function synchronously and returns the UCI move.
func (c *LambdaClient) RequestMove(ctx context.Context, evt LambdaEvent) (string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", err
	}
	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.function),
		Payload:      payload,
	})
	if err != nil {
		return "", err
	}
	if out.FunctionError != nil {
		log.Error().Str("function", c.function).Str("payload", string(out.Payload)).
			Msg("lambda-function-error")
		return "", fmt.Errorf("%s: %s", aws.ToString(out.FunctionError), string(out.Payload))
	}
	var mv string
	if err := json.Unmarshal(out.Payload, &mv); err != nil {
		return "", err
	}
	return mv, nil
}
