package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore is the part of the SSM client LoadParameters needs.
type ParameterStore interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM reads every parameter below path using the default AWS credential chain.
func LoadSSM(ctx context.Context, path string) (map[string]string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return LoadParameters(ctx, ssm.NewFromConfig(awsCfg), path)
}

// LoadParameters maps /path/NAME parameters to NAME => value. Nested paths keep only their
// last segment, so /app/prod/db/DATABASE_URL becomes DATABASE_URL.
func LoadParameters(ctx context.Context, client ParameterStore, path string) (map[string]string, error) {
	out := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("read SSM parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			key := parameterKey(aws.ToString(p.Name))
			if key == "" {
				continue
			}
			out[key] = aws.ToString(p.Value)
		}
	}
	return out, nil
}

func parameterKey(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
