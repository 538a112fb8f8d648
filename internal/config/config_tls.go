package config

import "fmt"

// pemSource is one piece of TLS material that may come from a file or from
// inline PEM content, never both.
type pemSource struct {
	name    string
	file    string
	content string
}

func (p pemSource) present() bool {
	return p.file != "" || p.content != ""
}

func (p pemSource) validate() error {
	if p.file != "" && p.content != "" {
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", p.name, p.name)
	}
	return nil
}

func (t TLSConfig) cert() pemSource { return pemSource{"cert", t.CertFile, t.CertContent} }
func (t TLSConfig) key() pemSource { return pemSource{"key", t.KeyFile, t.KeyContent} }
func (t TLSConfig) ca() pemSource { return pemSource{"ca", t.CAFile, t.CAContent} }

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

// validateTLSMode validates the TLS mode and the material it requires
func validateTLSMode(tls TLSConfig) error {
	var required []pemSource
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		required = []pemSource{tls.cert(), tls.key()}
	case "mutual":
		required = []pemSource{tls.cert(), tls.key(), tls.ca()}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	for _, src := range required {
		if !src.present() {
			if src.name == "ca" {
				return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
			}
			return fmt.Errorf("TLS certificate and key are required for %s mode (provide either files or content)", tls.Mode)
		}
		if err := src.validate(); err != nil {
			return err
		}
	}

	if tls.Mode == "mutual" {
		return validateClientAuthPolicy(tls)
	}
	return nil
}

// validateClientAuthPolicy validates the client authentication policy
func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

// validateTLSVersion validates the TLS version configuration
func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
