package commands

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	grpcconn "github.com/i2y/grpcconn"
	"github.com/i2y/grpcconn/codec"
	"github.com/i2y/grpcconn/endpoint"
	"github.com/i2y/grpcconn/transport"
)

// rawPair is the identity codec: the CLI has no generated message types,
// so it ships the payload bytes it was given straight through, the same
// way a protocol debugging tool treats the wire format as opaque.
func rawPair() codec.Pair[[]byte] {
	return codec.Pair[[]byte]{
		Name:   "raw",
		Encode: func(m []byte) ([]byte, error) { return m, nil },
		Decode: func(data []byte) ([]byte, error) { return append([]byte(nil), data...), nil },
	}
}

// NewCallCommand creates the "call" command: dial an origin, issue one
// unary call to a method path with a raw payload read from --data or
// stdin, and print the decoded response bytes.
func NewCallCommand() *cobra.Command {
	var (
		dataFlag       string
		timeoutFlag    time.Duration
		insecureFlag   bool
		userAgentFlag  string
		acceptGzip     bool
	)

	cmd := &cobra.Command{
		Use:   "call <origin> <method-path>",
		Short: "Issue one unary gRPC call using raw message bytes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse origin: %w", err)
			}
			path := args[1]

			payload := []byte(dataFlag)
			if dataFlag == "" {
				payload, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read payload from stdin: %w", err)
				}
			}

			ep := endpoint.New(*origin, endpoint.WithUserAgent(userAgentFlag), endpoint.WithTimeout(timeoutFlag))

			var tlsConfig *tls.Config
			if !insecureFlag {
				tlsConfig = &tls.Config{}
			}
			connector := transport.NewHTTP2Connector(ep, tlsConfig)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag+5*time.Second)
			defer cancel()

			conn, err := transport.NewConnection(ctx, connector, ep)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			cfg := grpcconn.NewConfig(*origin)
			if acceptGzip {
				cfg.AcceptCompressed("gzip")
			}

			pair := rawPair()
			client := grpcconn.New[[]byte, []byte](path, conn, cfg, pair, pair)

			resp, err := client.Unary(ctx, grpcconn.NewRequest(payload))
			if err != nil {
				return err
			}
			msg, err := resp.Message(ctx)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(msg)
			return err
		},
	}

	cmd.Flags().StringVar(&dataFlag, "data", "", "raw request payload (reads stdin if empty)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "per-call deadline enforced on the client side")
	cmd.Flags().BoolVar(&insecureFlag, "plaintext", false, "dial h2c instead of TLS")
	cmd.Flags().StringVar(&userAgentFlag, "user-agent", "grpcconn-cli/1.0", "user-agent string to send")
	cmd.Flags().BoolVar(&acceptGzip, "accept-gzip", false, "advertise grpc-accept-encoding: gzip")

	return cmd
}
