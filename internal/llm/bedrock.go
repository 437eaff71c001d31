package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultBedrockModel is the Bedrock model ID used when none is configured.
const DefaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// BedrockConfig contains configuration for the Bedrock provider.
// Credentials come from the default AWS chain (env, shared config, IMDS).
type BedrockConfig struct {
	Region string
	Model  string
}

// converseAPI is the subset of the Bedrock runtime client used here.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements LLM over the Bedrock Converse API.
type BedrockClient struct {
	api   converseAPI
	model string
}

// NewBedrockClient loads the default AWS configuration and creates a Bedrock client.
func NewBedrockClient(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return newBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.Model), nil
}

func newBedrockClient(api converseAPI, model string) *BedrockClient {
	if model == "" {
		model = DefaultBedrockModel
	}
	return &BedrockClient{api: api, model: model}
}

// Name returns the provider name.
func (c *BedrockClient) Name() string {
	return "bedrock"
}

// Generate sends a single-turn Converse request and joins the returned text blocks.
// Converse has no JSON mode; the prompt contract carries the format.
func (c *BedrockClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(opts.Temperature),
		},
	}
	if opts.MaxTokens > 0 {
		input.InferenceConfig.MaxTokens = aws.Int32(int32(opts.MaxTokens))
	}
	if opts.SystemPrompt != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: opts.SystemPrompt}}
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: bedrock converse: %v", ErrProvider, err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("%w: bedrock returned no message", ErrProvider)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String(), nil
}

// Ensure BedrockClient implements LLM interface.
var _ LLM = (*BedrockClient)(nil)
