package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastIn  *ssm.GetParameterInput
	callCnt int
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	f.callCnt++
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func paramOut(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(v), Type: types.ParameterTypeSecureString,
	}}
}

type fakeSource struct {
	val string
	err error
}

func (f fakeSource) Lookup(_ context.Context, _ string) (string, error) {
	return f.val, f.err
}

func TestSSMSource_Lookup_DecryptsParameter(t *testing.T) {
	api := &fakeAPI{getOut: paramOut(`{"token":"sk-from-ssm"}`)}
	src, err := NewSSMSource(api)
	require.NoError(t, err)

	v, err := src.Lookup(context.Background(), " /triage/open-ai-token ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"sk-from-ssm"}`, v)
	require.Equal(t, "/triage/open-ai-token", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestSSMSource_Lookup_Errors(t *testing.T) {
	src, err := NewSSMSource(&fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}})
	require.NoError(t, err)
	_, err = src.Lookup(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")

	src, err = NewSSMSource(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = src.Lookup(context.Background(), "p")
	require.ErrorContains(t, err, "boom")

	_, err = src.Lookup(context.Background(), "  ")
	require.ErrorContains(t, err, "required")

	_, err = (&SSMSource{}).Lookup(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	_, err = NewSSMSource(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestEnvSource_Lookup(t *testing.T) {
	t.Setenv("TRIAGE_TEST_KEY", "sk-env")
	v, err := EnvSource{}.Lookup(context.Background(), "TRIAGE_TEST_KEY")
	require.NoError(t, err)
	require.Equal(t, "sk-env", v)

	t.Setenv("TRIAGE_TEST_BLANK", " ")
	_, err = EnvSource{}.Lookup(context.Background(), "TRIAGE_TEST_BLANK")
	require.ErrorContains(t, err, "not set")
}

func TestResolveAPIKey_JSONToken(t *testing.T) {
	key, err := ResolveAPIKey(context.Background(), fakeSource{val: `{"token":"sk-from-json"}`}, "/triage/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-from-json", key)
}

func TestResolveAPIKey_RawValue(t *testing.T) {
	key, err := ResolveAPIKey(context.Background(), fakeSource{val: " sk-raw \n"}, "OPENAI_API_KEY")
	require.NoError(t, err)
	require.Equal(t, "sk-raw", key)
}

func TestResolveAPIKey_ThroughSSM(t *testing.T) {
	api := &fakeAPI{getOut: paramOut(`{"token":"sk-ssm"}`)}
	src, err := NewSSMSource(api)
	require.NoError(t, err)

	key, err := ResolveAPIKey(context.Background(), src, "/triage/open-ai-token")
	require.NoError(t, err)
	require.Equal(t, "sk-ssm", key)
	require.Equal(t, 1, api.callCnt)
}

func TestResolveAPIKey_Failures(t *testing.T) {
	_, err := ResolveAPIKey(context.Background(), fakeSource{val: `{"other":"value"}`}, "n")
	require.ErrorContains(t, err, "API token is empty")

	_, err = ResolveAPIKey(context.Background(), fakeSource{val: `{"broken`}, "n")
	require.ErrorContains(t, err, "unmarshal")

	_, err = ResolveAPIKey(context.Background(), fakeSource{err: errors.New("ssm unavailable")}, "n")
	require.ErrorContains(t, err, "ssm unavailable")

	_, err = ResolveAPIKey(context.Background(), nil, "n")
	require.ErrorContains(t, err, "nil")

	_, err = ResolveAPIKey(context.Background(), fakeSource{val: "x"}, " ")
	require.ErrorContains(t, err, "empty")
}
