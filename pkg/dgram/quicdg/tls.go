// SPDX-FileCopyrightText: 2026 The sst-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package quicdg

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"time"

	"github.com/quic-go/quic-go"
)

// nextProto is the ALPN identifier of SST over QUIC datagrams.
const nextProto = "sst-quicdg"

const (
	// ApplicationShutdown is sent when a Conn is closed locally.
	ApplicationShutdown quic.ApplicationErrorCode = 1

	// ListenerShutdown is sent to each peer of a closing Listener.
	ListenerShutdown quic.ApplicationErrorCode = 2
)

// ListenerTLSConfig creates a TLS config with a fresh self-signed certificate.
// Dialers cannot verify it and skip the verification.
func ListenerTLSConfig() (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{certDER},
			PrivateKey:  key,
		}},
		NextProtos: []string{nextProto},
		MinVersion: tls.VersionTLS13,
	}, nil
}

// DialerTLSConfig accepts the Listener's self-signed certificate.
func DialerTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{nextProto},
	}
}

// Config for QUIC connections.
type Config struct {
	// KeepAlivePeriod between keep-alive packets. Zero disables them.
	KeepAlivePeriod time.Duration

	// MaxIdleTimeout closes a silent connection.
	MaxIdleTimeout time.Duration

	// HandshakeTimeout limits Dial.
	HandshakeTimeout time.Duration
}

// DefaultConfig keeps idle peers for half a minute.
func DefaultConfig() Config {
	return Config{
		KeepAlivePeriod:  5 * time.Second,
		MaxIdleTimeout:   30 * time.Second,
		HandshakeTimeout: 5 * time.Second,
	}
}

func (c Config) quicConfig() *quic.Config {
	return &quic.Config{
		HandshakeIdleTimeout: c.HandshakeTimeout,
		KeepAlivePeriod:      c.KeepAlivePeriod,
		MaxIdleTimeout:       c.MaxIdleTimeout,
		EnableDatagrams:      true,
	}
}
