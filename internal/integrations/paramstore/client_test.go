package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out     *ssm.GetParameterOutput
	err     error
	gotName string
	decrypt bool
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.gotName = *in.Name
	f.decrypt = *in.WithDecryption
	return f.out, f.err
}

func strPtr(s string) *string { return &s }

func TestGetParameter(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: strPtr("s3cr3t")}}}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), " /rentitout/prod/JWT_SECRET ")
	require.NoError(t, err)
	require.Equal(t, "s3cr3t", v)
	require.Equal(t, "/rentitout/prod/JWT_SECRET", api.gotName)
	require.True(t, api.decrypt)
}

func TestGetParameter_Errors(t *testing.T) {
	c, err := New(&fakeSSM{err: errors.New("throttled")})
	require.NoError(t, err)
	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "throttled")

	c, _ = New(&fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{}}})
	_, err = c.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "no value")

	_, err = c.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")

	_, err = New(nil)
	require.Error(t, err)
}
