package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by SSMSource.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads SecureString parameters from AWS Systems Manager.
type SSMSource struct {
	api ssmAPI
}

// NewSSMSource creates an SSMSource with the given SSM API implementation.
func NewSSMSource(api ssmAPI) (*SSMSource, error) {
	if api == nil {
		return nil, errors.New("credentials: ssm api must not be nil")
	}
	return &SSMSource{api: api}, nil
}

func (s *SSMSource) Lookup(ctx context.Context, name string) (string, error) {
	if s == nil || s.api == nil {
		return "", errors.New("credentials: ssm source not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("credentials: parameter name is required")
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("credentials: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("credentials: parameter %q missing value", name)
	}
	return *out.Parameter.Value, nil
}
