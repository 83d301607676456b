package mailer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

type capturedMail struct {
	from string
	to   []string
	data []byte
	tls  bool
	user string
}

// relayBackend 记录收到的邮件的测试 SMTP 中继
type relayBackend struct {
	mu         sync.Mutex
	mails      []capturedMail
	rejectRcpt bool
	username   string // 非空时提供 PLAIN 认证
	password   string
}

func (b *relayBackend) NewSession(c *gosmtp.Conn) (gosmtp.Session, error) {
	_, isTLS := c.TLSConnectionState()
	session := &relaySession{backend: b, tls: isTLS}
	if b.username != "" {
		return &authRelaySession{relaySession: session}, nil
	}
	return session, nil
}

func (b *relayBackend) received() []capturedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]capturedMail(nil), b.mails...)
}

type relaySession struct {
	backend *relayBackend
	tls     bool
	user    string
	from    string
	to      []string
}

func (s *relaySession) Mail(from string, _ *gosmtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *relaySession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	if s.backend.rejectRcpt {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
			Message:      "mailbox unavailable",
		}
	}
	s.to = append(s.to, to)
	return nil
}

func (s *relaySession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.mails = append(s.backend.mails, capturedMail{
		from: s.from,
		to:   s.to,
		data: data,
		tls:  s.tls,
		user: s.user,
	})
	s.backend.mu.Unlock()
	return nil
}

func (s *relaySession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *relaySession) Logout() error { return nil }

// authRelaySession 宣告 AUTH PLAIN 的会话
type authRelaySession struct {
	*relaySession
}

func (s *authRelaySession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *authRelaySession) Auth(_ string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			return errors.New("invalid credentials")
		}
		s.user = username
		return nil
	}), nil
}

// startRelay 启动测试中继；tlsConfig 非空时宣告 STARTTLS
func startRelay(t *testing.T, backend *relayBackend, tlsConfig *tls.Config) config.SMTPConfig {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := gosmtp.NewServer(backend)
	server.Domain = "localhost"
	server.AllowInsecureAuth = true
	server.TLSConfig = tlsConfig
	go func() { _ = server.Serve(l) }()
	t.Cleanup(func() { _ = server.Close() })

	return listenerConfig(t, l)
}

func listenerConfig(t *testing.T, l net.Listener) config.SMTPConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)
	return config.SMTPConfig{Host: host, Port: portNum}
}

// selfSignedTLS 借用 httptest 的自签名证书，返回服务端配置和信任它的根证书池
func selfSignedTLS(t *testing.T) (*tls.Config, *x509.CertPool) {
	t.Helper()
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return &tls.Config{Certificates: srv.TLS.Certificates}, pool
}

// startScriptedRelay 手写协议的中继：接受 DATA，但用 quitReply 回应 QUIT
func startScriptedRelay(t *testing.T, quitReply string) (config.SMTPConfig, <-chan []byte) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	accepted := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := textproto.NewReader(bufio.NewReader(conn))
		reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }

		reply("220 localhost ready")
		for {
			line, err := r.ReadLine()
			if err != nil {
				return
			}
			switch verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); verb {
			case "EHLO", "HELO":
				reply("250 localhost")
			case "MAIL", "RCPT":
				reply("250 OK")
			case "DATA":
				reply("354 go ahead")
				data, err := r.ReadDotBytes()
				if err != nil {
					return
				}
				accepted <- data
				reply("250 queued")
			case "QUIT":
				reply(quitReply)
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	return listenerConfig(t, l), accepted
}

func TestSMTPSender_Send(t *testing.T) {
	t.Run("Delivers a multipart message to the relay", func(t *testing.T) {
		backend := &relayBackend{}
		sender := NewSMTPSender(startRelay(t, backend, nil), 5*time.Second, nil)

		_, err := sender.Send(context.Background(), testMail())
		require.NoError(t, err)

		mails := backend.received()
		require.Len(t, mails, 1)
		assert.Equal(t, "site@traguardo.fr", mails[0].from)
		assert.Equal(t, []string{"contact@traguardo.fr"}, mails[0].to)
		assert.False(t, mails[0].tls)
		raw := string(mails[0].data)
		assert.Contains(t, raw, "Reply-To: marie@example.com")
		assert.Contains(t, raw, "Subject: [Traguardo] Nouveau message - Marie")
		assert.Contains(t, raw, "multipart/alternative")
	})

	t.Run("Upgrades with STARTTLS and authenticates", func(t *testing.T) {
		serverTLS, roots := selfSignedTLS(t)
		backend := &relayBackend{username: "site", password: "secret"}
		cfg := startRelay(t, backend, serverTLS)
		cfg.StartTLS = true
		cfg.Username = "site"
		cfg.Password = "secret"

		sender := NewSMTPSender(cfg, 5*time.Second, nil)
		require.NotNil(t, sender.tlsConfig)
		assert.Equal(t, "127.0.0.1", sender.tlsConfig.ServerName)
		sender.tlsConfig.RootCAs = roots

		_, err := sender.Send(context.Background(), testMail())
		require.NoError(t, err)

		mails := backend.received()
		require.Len(t, mails, 1)
		assert.True(t, mails[0].tls)
		assert.Equal(t, "site", mails[0].user)
	})

	t.Run("Untrusted certificate fails the upgrade", func(t *testing.T) {
		serverTLS, _ := selfSignedTLS(t)
		backend := &relayBackend{}
		cfg := startRelay(t, backend, serverTLS)
		cfg.StartTLS = true

		_, err := NewSMTPSender(cfg, 5*time.Second, nil).Send(context.Background(), testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		var certErr *tls.CertificateVerificationError
		assert.ErrorAs(t, err, &certErr)
		assert.Empty(t, backend.received())
	})

	t.Run("STARTTLS required but not offered", func(t *testing.T) {
		backend := &relayBackend{}
		cfg := startRelay(t, backend, nil)
		cfg.StartTLS = true

		_, err := NewSMTPSender(cfg, 5*time.Second, nil).Send(context.Background(), testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Contains(t, err.Error(), "STARTTLS")
		assert.Empty(t, backend.received())
	})

	t.Run("Rejected recipient carries the SMTP code", func(t *testing.T) {
		backend := &relayBackend{rejectRcpt: true}
		sender := NewSMTPSender(startRelay(t, backend, nil), 5*time.Second, nil)

		_, err := sender.Send(context.Background(), testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 550, pe.StatusCode)
		assert.Empty(t, backend.received())
	})

	t.Run("Credentials require AUTH support", func(t *testing.T) {
		cfg := startRelay(t, &relayBackend{}, nil)
		cfg.Username = "site"
		cfg.Password = "secret"

		_, err := NewSMTPSender(cfg, 5*time.Second, nil).Send(context.Background(), testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Contains(t, err.Error(), "AUTH")
	})

	t.Run("Wrong credentials are rejected", func(t *testing.T) {
		backend := &relayBackend{username: "site", password: "secret"}
		cfg := startRelay(t, backend, nil)
		cfg.Username = "site"
		cfg.Password = "wrong"

		_, err := NewSMTPSender(cfg, 5*time.Second, nil).Send(context.Background(), testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Empty(t, backend.received())
	})

	t.Run("QUIT failure after accepted DATA still succeeds", func(t *testing.T) {
		cfg, accepted := startScriptedRelay(t, "421 closing channel")

		_, err := NewSMTPSender(cfg, 5*time.Second, nil).Send(context.Background(), testMail())
		require.NoError(t, err)

		select {
		case data := <-accepted:
			assert.Contains(t, string(data), "multipart/alternative")
		case <-time.After(time.Second):
			t.Fatal("relay never received DATA")
		}
	})

	t.Run("Silent server hits the deadline", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer l.Close()
		go func() {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}()

		sender := NewSMTPSender(listenerConfig(t, l), 5*time.Second, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err = sender.Send(ctx, testMail())

		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME(testMail())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	from, err := msg.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "site@traguardo.fr", from[0].Address)

	to, err := msg.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "contact@traguardo.fr", to[0].Address)

	replyTo, err := msg.Header.AddressList("Reply-To")
	require.NoError(t, err)
	require.Len(t, replyTo, 1)
	assert.Equal(t, "marie@example.com", replyTo[0].Address)

	assert.Contains(t, msg.Header.Get("Content-Type"), "multipart/alternative")
	assert.Contains(t, string(raw), "text/html")
	assert.Contains(t, string(raw), "text/plain")
}
