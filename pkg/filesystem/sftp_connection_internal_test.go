package filesystem

import (
	"context"
	"net"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestSFTPConnection_Client_ReturnsNilWhenNil(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	conn := &SFTPConnection{}

	g.Expect(conn.Client()).To(BeNil())
	g.Expect(conn.Close()).To(Succeed())
}

func TestSFTPTarget_Address(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(SFTPTarget{Host: "example.com", Port: 2222}.Address()).To(Equal("example.com:2222"))
	g.Expect(SFTPTarget{Host: "::1", Port: 22}.Address()).To(Equal("[::1]:22"))
}

func TestSSHAuthMethods_PasswordFirst(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())
	g := NewWithT(t)

	g.Expect(sshAuthMethods("")).To(BeEmpty())
	g.Expect(sshAuthMethods("secret")).To(HaveLen(2))
}

func TestPasswordChallenge_AnswersEveryQuestion(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	answers, err := passwordChallenge("pw")("user", "instr", []string{"Password:", "Again:"}, []bool{false, false})

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(answers).To(Equal([]string{"pw", "pw"}))
}

func TestDial_NoAuthMethods(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())
	g := NewWithT(t)

	_, err := Dial(context.Background(), SFTPTarget{Host: "127.0.0.1", Port: 22, User: "u"}, time.Second)

	g.Expect(err).To(MatchError(ErrNoAuthMethods))
}

func TestDial_RefusedConnection(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	// Grab a free port and close it so nothing is listening.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	g.Expect(err).ToNot(HaveOccurred())

	port := listener.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert // tcp listener
	g.Expect(listener.Close()).To(Succeed())

	target := SFTPTarget{Host: "127.0.0.1", Port: port, User: "u", Password: "pw"}
	_, err = Dial(context.Background(), target, time.Second)

	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("SSH connection failed"))
}

func TestDial_HandshakeTimeout(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	// A listener that accepts but never speaks SSH.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	g.Expect(err).ToNot(HaveOccurred())

	defer func() { _ = listener.Close() }()

	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}

		defer func() { _ = conn.Close() }()

		time.Sleep(2 * time.Second)
	}()

	port := listener.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert // tcp listener
	target := SFTPTarget{Host: "127.0.0.1", Port: port, User: "u", Password: "pw"}

	start := time.Now()
	_, err = Dial(context.Background(), target, 200*time.Millisecond)

	g.Expect(err).To(HaveOccurred())
	g.Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
}
