package remote

import (
	"os"
	"os/exec"
	"testing"

	. "github.com/onsi/gomega"
)

func TestAskpassScript_PrintsPasswordOnceAndUnlinks(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no POSIX shell available")
	}

	script, err := writeAskpass(t.TempDir(), "it's a \"secret\" $HOME")
	g.Expect(err).ToNot(HaveOccurred())

	out, err := exec.Command(script.path).Output() // #nosec G204 - test script
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(out)).To(Equal("it's a \"secret\" $HOME\n"))
	g.Expect(script.path).ToNot(BeAnExistingFile())

	script.remove()
}

func TestAskpassScript_EnvForcesAskpass(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	script, err := writeAskpass(t.TempDir(), "pw")
	g.Expect(err).ToNot(HaveOccurred())

	defer script.remove()

	g.Expect(script.env()).To(ContainElements("SSH_ASKPASS="+script.path, "SSH_ASKPASS_REQUIRE=force"))

	info, err := os.Stat(script.path)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o700)))
}

func TestEndpoint_TargetAndString(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(Endpoint{Host: "h", Username: "u"}.Target()).To(Equal("u@h"))
	g.Expect(Endpoint{Host: "::1", Username: "u"}.Target()).To(Equal("u@[::1]"))
	g.Expect(Endpoint{Host: "h", Username: "u", Password: "pw"}.String()).To(Equal("u@h:22"))
}

func TestDirAccumulator_MissingFinalReport(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var acc dirAccumulator

	g.Expect(acc.add(ProgressLine{Bytes: 70})).To(BeEquivalentTo(70))
	// Next file started without a final report for the previous one.
	g.Expect(acc.add(ProgressLine{Bytes: 10})).To(BeEquivalentTo(80))
	g.Expect(acc.add(ProgressLine{Bytes: 30, FileDone: true})).To(BeEquivalentTo(100))
}
