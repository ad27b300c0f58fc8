package constants

// ScanStatus is the lifecycle state stored on a scan record.
type ScanStatus string

// Stable values (stored verbatim in the scans table and returned by the API).
const (
	ScanStatusScanned    ScanStatus = "scanned"     // contact extracted, nothing drafted
	ScanStatusDrafted    ScanStatus = "drafted"     // follow-up draft generated
	ScanStatusSentManual ScanStatus = "sent_manual" // handed off to the user's mail app
	ScanStatusSentGmail  ScanStatus = "sent_gmail"  // sent through the Gmail API
)

var allStatuses = []ScanStatus{
	ScanStatusScanned,
	ScanStatusDrafted,
	ScanStatusSentManual,
	ScanStatusSentGmail,
}

// StatusStrings returns every status as a plain string, in declaration order.
func StatusStrings() []string {
	out := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		out[i] = string(s)
	}
	return out
}

// ParseStatus maps an API value onto a ScanStatus.
func ParseStatus(s string) (ScanStatus, bool) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsSent reports whether the status marks a delivered follow-up.
func (s ScanStatus) IsSent() bool {
	return s == ScanStatusSentManual || s == ScanStatusSentGmail
}
