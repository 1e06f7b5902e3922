package download

// SaveFunc persists a delivered file.
type SaveFunc func(name string, data []byte, contentType string) error

// Archive persists every deliverable blob through Save before handing it to
// Next. Nothing is saved when Next cannot deliver. A failed save is logged
// and does not block delivery.
type Archive struct {
	Next Downloader
	Save SaveFunc
}

func (a *Archive) Available() bool {
	return a.Next != nil && a.Next.Available()
}

func (a *Archive) Blob(name string, data []byte, contentType string) bool {
	if !a.Available() {
		unavailable(name)
		return false
	}
	if a.Save != nil {
		if err := a.Save(name, data, contentType); err != nil {
			warn("download.archive_failed", name, err)
		}
	}
	return a.Next.Blob(name, data, contentType)
}

func (a *Archive) URL(name, rawURL string) bool {
	if a.Next == nil {
		unavailable(name)
		return false
	}
	return a.Next.URL(name, rawURL)
}
