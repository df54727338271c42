package crashprobe

import (
	"regexp"

	"github.com/jcchavezs/crashprobe/exec"
)

// Fault is the signal header the Go runtime prints before a fatal traceback.
type Fault struct {
	Signal      string
	Description string
	Code        string
	Addr        string
	PC          string
}

// Signature identifies a fault independently of where the binary was loaded.
func (f Fault) Signature() string {
	return f.Signal + " addr=" + f.Addr
}

// Matches both "[signal SIGSEGV: segmentation violation code=0x1 addr=0x0 pc=0x47e1a4]"
// and the windows form "[signal 0xc0000005 code=0x1 addr=0x0 pc=0x47e1a4]".
var faultHeader = regexp.MustCompile(`\[signal (\S+?):?(?: ([^\]]*?))? code=(\S+) addr=(\S+) pc=(\S+)\]`)

// ParseFault extracts the first fault header found in stderr.
func ParseFault(stderr string) (Fault, bool) {
	m := faultHeader.FindStringSubmatch(stderr)
	if m == nil {
		return Fault{}, false
	}

	return Fault{
		Signal:      m[1],
		Description: m[2],
		Code:        m[3],
		Addr:        m[4],
		PC:          m[5],
	}, true
}

// Classify maps a process result to an Outcome. A process counts as crashed
// when a signal killed it or the runtime reported a fault before exiting.
func Classify(res exec.Result) (Outcome, *Fault) {
	f, hasFault := ParseFault(res.Stderr())

	var fault *Fault
	if hasFault {
		fault = &f
	}

	switch {
	case res.Signaled():
		return OutcomeCrashed, fault
	case res.ExitCode() == 0:
		return OutcomeClean, nil
	case hasFault:
		return OutcomeCrashed, fault
	default:
		return OutcomeFailed, nil
	}
}
