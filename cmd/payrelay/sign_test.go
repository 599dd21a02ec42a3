package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/smallbiznis/payrelay/internal/payment/gateway/paystack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignPayload(t *testing.T) {
	body := `{"event":"charge.success","data":{"reference":"ref_1"}}`

	signature, err := signPayload(strings.NewReader(body), "sk_test")
	require.NoError(t, err)
	assert.Equal(t, paystack.Sign("sk_test", []byte(body)), signature)

	_, err = signPayload(strings.NewReader(body), " ")
	assert.Error(t, err)
}

func TestSignCmdReadsStdin(t *testing.T) {
	body := `{"event":"charge.success"}`
	cmd := signCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(body))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--secret", "sk_test"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, paystack.Sign("sk_test", []byte(body))+"\n", out.String())
}
