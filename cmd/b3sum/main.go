// Command b3sum computes BLAKE3 checksums of files or standard input.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/codahale/blake3"
	"github.com/spf13/cobra"
)

var (
	outLen    int
	keyHex    string
	deriveCtx string
)

func init() {
	rootCmd.Flags().IntVarP(&outLen, "length", "l", blake3.Size, "output length in bytes")
	rootCmd.Flags().StringVarP(&keyHex, "key", "k", "", "use keyed mode with the given 64-hex-char key")
	rootCmd.Flags().StringVar(&deriveCtx, "derive-key", "", "use key derivation mode with the given context string")
}

var rootCmd = &cobra.Command{
	Use:           "b3sum [file ...]",
	Short:         "compute BLAKE3 checksums",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outLen < 1 {
			return errors.New("output length must be at least 1 byte")
		}

		if len(args) == 0 {
			return sum(os.Stdin, "-")
		}

		for _, name := range args {
			f, err := os.Open(name)
			if err != nil {
				return err
			}

			err = sum(f, name)
			_ = f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func newHasher() (*blake3.Hasher, error) {
	switch {
	case keyHex != "" && deriveCtx != "":
		return nil, errors.New("--key and --derive-key are mutually exclusive")
	case keyHex != "":
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid key: %w", err)
		}
		return blake3.NewKeyed(key)
	case deriveCtx != "":
		return blake3.NewDeriveKey(deriveCtx), nil
	default:
		return blake3.New(), nil
	}
}

func sum(r io.Reader, name string) error {
	h, err := newHasher()
	if err != nil {
		return err
	}

	if _, err := io.Copy(h, r); err != nil {
		return err
	}

	out := make([]byte, outLen)
	_, _ = h.Read(out)
	fmt.Printf("%x  %s\n", out, name)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "b3sum:", err)
		os.Exit(1)
	}
}
