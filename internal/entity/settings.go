package entity

// DefaultDocumentName is the base name of a capture's main document.
const DefaultDocumentName = "index"

// CaptureSettings identifies one capture invocation within a session.
type CaptureSettings struct {
	SessionID    string `json:"session_id"`
	DocumentName string `json:"document_name"`
	IsMainFrame  bool   `json:"is_main_frame"`
	// FrameDepth is 0 for the main frame.
	FrameDepth int `json:"frame_depth"`
	// FrameChain holds the URLs of the ancestor documents, outermost first.
	FrameChain []string `json:"frame_chain,omitempty"`
}

// NewSettings returns the settings of a session's main frame.
func NewSettings(sessionID string) CaptureSettings {
	return CaptureSettings{
		SessionID:    sessionID,
		DocumentName: DefaultDocumentName,
		IsMainFrame:  true,
	}
}

// ForFrame derives the settings of a frame embedded in the document at
// parentURL.
func (s CaptureSettings) ForFrame(parentURL string) CaptureSettings {
	chain := make([]string, len(s.FrameChain), len(s.FrameChain)+1)
	copy(chain, s.FrameChain)
	return CaptureSettings{
		SessionID:    s.SessionID,
		DocumentName: s.DocumentName,
		IsMainFrame:  false,
		FrameDepth:   s.FrameDepth + 1,
		FrameChain:   append(chain, parentURL),
	}
}

// InChain reports whether url is one of the ancestor documents.
func (s CaptureSettings) InChain(url string) bool {
	for _, u := range s.FrameChain {
		if u == url {
			return true
		}
	}
	return false
}
