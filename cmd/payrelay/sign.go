package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallbiznis/payrelay/internal/payment/gateway/paystack"
	"github.com/spf13/cobra"
)

// signCmd prints the signature header value for a webhook body, for
// replaying deliveries against a relay with signature checks turned on.
func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Compute the X-Paystack-Signature for a webhook body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if strings.TrimSpace(secret) == "" {
				secret = os.Getenv("PAYSTACK_SECRET_KEY")
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			signature, err := signPayload(in, secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signature)
			return nil
		},
	}

	cmd.Flags().StringP("secret", "s", "", "Gateway secret key (defaults to PAYSTACK_SECRET_KEY)")

	return cmd
}

func signPayload(r io.Reader, secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("secret key is required")
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return paystack.Sign(secret, payload), nil
}
