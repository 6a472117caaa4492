package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ruteri/liveness-gated-kms/api/kmshandler"
	"github.com/urfave/cli/v2"
)

var flagKmsAddr *cli.StringFlag = &cli.StringFlag{
	Name:    "kms-addr",
	EnvVars: []string{"FISH_KMS_ADDR"},
	Value:   "http://127.0.0.1:8000",
	Usage:   "KMS server address to request",
}

var flagAPIKey *cli.StringFlag = &cli.StringFlag{
	Name:    "api-key",
	EnvVars: []string{"FISH_KMS_API_KEY"},
	Usage:   "shared secret sent in the X-FISH-AUTH header",
}

var flagOwner *cli.StringFlag = &cli.StringFlag{
	Name:     "owner",
	Required: true,
	Usage:    "owner id",
}

var flagPlaintext *cli.StringFlag = &cli.StringFlag{
	Name:     "plaintext",
	Required: true,
	Usage:    "plaintext to encrypt",
}

var flagCiphertext *cli.StringFlag = &cli.StringFlag{
	Name:     "ciphertext",
	Required: true,
	Usage:    "base64 ciphertext returned by encrypt",
}

var flagNonce *cli.StringFlag = &cli.StringFlag{
	Name:     "nonce",
	Required: true,
	Usage:    "base64 nonce returned by encrypt",
}

func newClient(cCtx *cli.Context) *kmshandler.Client {
	return kmshandler.NewClient(cCtx.String(flagKmsAddr.Name), cCtx.String(flagAPIKey.Name))
}

func printJSON(v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func main() {
	app := &cli.App{
		Name:  "kms client",
		Usage: "Talk to a liveness gated KMS server",
		Flags: []cli.Flag{
			flagKmsAddr,
			flagAPIKey,
		},
		Commands: []*cli.Command{
			{
				Name:  "health",
				Usage: "sample entropy and report the source mode",
				Action: func(cCtx *cli.Context) error {
					health, err := newClient(cCtx).Health(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(health)
				},
			},
			{
				Name:  "unlock",
				Usage: "open an unlock window for an owner",
				Flags: []cli.Flag{flagOwner},
				Action: func(cCtx *cli.Context) error {
					unlocked, err := newClient(cCtx).Unlock(cCtx.Context, cCtx.String(flagOwner.Name))
					if err != nil {
						return err
					}
					return printJSON(unlocked)
				},
			},
			{
				Name:  "encrypt",
				Usage: "encrypt plaintext under an owner's key",
				Flags: []cli.Flag{flagOwner, flagPlaintext},
				Action: func(cCtx *cli.Context) error {
					sealed, err := newClient(cCtx).Encrypt(cCtx.Context, cCtx.String(flagOwner.Name), cCtx.String(flagPlaintext.Name))
					if err != nil {
						return err
					}
					return printJSON(sealed)
				},
			},
			{
				Name:  "decrypt",
				Usage: "decrypt for an unlocked owner",
				Flags: []cli.Flag{flagOwner, flagCiphertext, flagNonce},
				Action: func(cCtx *cli.Context) error {
					plaintext, err := newClient(cCtx).Decrypt(cCtx.Context,
						cCtx.String(flagOwner.Name),
						cCtx.String(flagCiphertext.Name),
						cCtx.String(flagNonce.Name))
					if err != nil {
						return err
					}
					return printJSON(map[string]string{"plaintext": plaintext})
				},
			},
			{
				Name:  "status",
				Usage: "report unlocked and total owner counts",
				Action: func(cCtx *cli.Context) error {
					status, err := newClient(cCtx).Status(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(status)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
