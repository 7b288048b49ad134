package ftp

import "io"

// ProgressReader wraps an io.Reader and reports the running byte count via
// a callback. Uploads use it on the local source.
type ProgressReader struct {
	// Reader is the underlying reader
	Reader io.Reader

	// Callback is called after each non-empty Read with the total so far
	Callback func(bytesTransferred int64)

	total int64
}

// Read implements io.Reader.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.report(n)
	return n, err
}

// Total returns the number of bytes read so far.
func (pr *ProgressReader) Total() int64 { return pr.total }

func (pr *ProgressReader) report(n int) {
	if n <= 0 {
		return
	}
	pr.total += int64(n)
	if pr.Callback != nil {
		pr.Callback(pr.total)
	}
}

// ProgressWriter wraps an io.Writer and reports the running byte count via
// a callback. Listings and downloads use it on the local sink.
type ProgressWriter struct {
	// Writer is the underlying writer
	Writer io.Writer

	// Callback is called after each non-empty Write with the total so far
	Callback func(bytesTransferred int64)

	total int64
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 {
		pw.total += int64(n)
		if pw.Callback != nil {
			pw.Callback(pw.total)
		}
	}
	return n, err
}

// Total returns the number of bytes written so far.
func (pw *ProgressWriter) Total() int64 { return pw.total }
