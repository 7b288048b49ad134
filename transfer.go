package ftp

import (
	"fmt"
	"io"
	"net"

	"github.com/ftpdrive/ftp/internal/ratelimit"
)

// List streams the server's LIST output for the current directory to w as
// it arrives, and returns the terminating reply.
//
// The preliminary reply is passed on to the response handler without a
// code check, but a 4xx/5xx reply ends the operation with a ProtocolError
// since the server will send neither data nor a final reply after it.
//
// Example:
//
//	if _, err := client.List(os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
func (c *Client) List(w io.Writer) (*Response, error) {
	dataConn, resp, err := c.beginTransfer("LIST")
	if err != nil {
		return nil, err
	}
	if resp.IsNegative() {
		c.abortTransfer()
		return resp, &ProtocolError{Command: "LIST", Response: resp.String(), Code: resp.Code}
	}

	_, recvErr := c.receive(c.progressWriter("LIST", w), dataConn)

	final, finishErr := c.finishTransfer()
	if recvErr != nil {
		return final, recvErr
	}
	return final, finishErr
}

// Store uploads everything read from r to remotePath.
//
// The server must answer STOR with 150 or 125 before any byte is sent.
// Data goes out in chunks of the configured size, each written in full
// before the next is read. After the data connection is closed the server
// must confirm with 226 or 250, otherwise the returned error wraps
// ErrUploadFailed.
func (c *Client) Store(remotePath string, r io.Reader) error {
	cmd := "STOR " + remotePath

	dataConn, resp, err := c.beginTransfer("STOR", remotePath)
	if err != nil {
		return err
	}
	if err := c.expectCode(resp, cmd, "150", "125"); err != nil {
		c.abortTransfer()
		return err
	}

	dst := ratelimit.NewWriter(dataConn, c.limiter)
	_, sendErr := c.sendChunks(dst, c.progressReader("STOR", r), dataConn.RemoteAddr())

	final, finishErr := c.finishTransfer()
	if sendErr != nil {
		return sendErr
	}
	if finishErr != nil {
		return finishErr
	}

	if err := c.expectCode(final, cmd, "226", "250"); err != nil {
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return nil
}

// Retrieve downloads remotePath and writes its bytes to w.
//
// The preliminary RETR reply is not checked against a particular code,
// except that a 4xx/5xx reply ends the operation. After the data connection
// reaches end of stream and is closed the server must confirm with 226,
// otherwise the returned error wraps ErrDownloadFailed.
func (c *Client) Retrieve(remotePath string, w io.Writer) error {
	cmd := "RETR " + remotePath

	dataConn, resp, err := c.beginTransfer("RETR", remotePath)
	if err != nil {
		return err
	}
	if resp.IsNegative() {
		c.abortTransfer()
		return &ProtocolError{Command: cmd, Response: resp.String(), Code: resp.Code}
	}

	_, recvErr := c.receive(c.progressWriter("RETR", w), dataConn)

	final, finishErr := c.finishTransfer()
	if recvErr != nil {
		return recvErr
	}
	if finishErr != nil {
		return finishErr
	}

	if err := c.expectCode(final, cmd, "226"); err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return nil
}

// UploadFile uploads localPath, resolved under the storage root, to
// remotePath. A missing root, a missing file, a directory or a path outside
// the root fails with a NotFoundError before any connection is made.
//
// Example:
//
//	err := client.UploadFile("local.txt", "remote.txt")
func (c *Client) UploadFile(localPath, remotePath string) error {
	f, info, err := c.root.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	c.logger.Info("starting upload", "local", f.Name(), "remote", remotePath, "size", info.Size())
	if err := c.Store(remotePath, f); err != nil {
		return err
	}
	c.logger.Info("upload complete", "remote", remotePath)
	return nil
}

// DownloadFile downloads remotePath into localPath under the storage root.
// The root is created if it does not exist yet. Data is written to a
// temporary file that replaces localPath only once the server confirms the
// transfer, so a failed download leaves an existing localPath unchanged.
//
// Example:
//
//	err := client.DownloadFile("remote.txt", "copy.txt")
func (c *Client) DownloadFile(remotePath, localPath string) error {
	p, err := c.root.CreatePending(localPath)
	if err != nil {
		return err
	}

	if err := c.Retrieve(remotePath, p); err != nil {
		p.Discard()
		return err
	}
	if err := p.Commit(); err != nil {
		return err
	}

	c.logger.Info("download complete", "remote", remotePath, "local", p.Target())
	return nil
}

// beginTransfer opens a passive data connection and sends the transfer
// command on the control connection. The caller owns the returned data
// connection until finishTransfer or abortTransfer.
func (c *Client) beginTransfer(command string, args ...string) (net.Conn, *Response, error) {
	if c.closed {
		return nil, nil, ErrClosed
	}
	if c.dataConn != nil {
		return nil, nil, ErrTransferInProgress
	}

	dataConn, err := c.enterPassiveMode()
	if err != nil {
		return nil, nil, err
	}
	c.dataConn = dataConn

	resp, err := c.roundTrip(command, args...)
	if err != nil {
		c.abortTransfer()
		return nil, nil, err
	}
	return dataConn, resp, nil
}

// abortTransfer closes the data connection without reading a final reply.
func (c *Client) abortTransfer() {
	if c.dataConn == nil {
		return
	}
	_ = c.dataConn.Close()
	c.dataConn = nil
	c.logger.Debug("data connection aborted")
}

// finishTransfer closes the data connection and reads the terminating
// reply from the control connection.
func (c *Client) finishTransfer() (*Response, error) {
	dataConn := c.dataConn
	c.dataConn = nil

	if err := dataConn.Close(); err != nil {
		return nil, &TransportError{Op: "close", Addr: addrString(dataConn.RemoteAddr()), Err: err}
	}
	c.logger.Debug("data connection closed")

	return c.readReply()
}

// sendChunks copies src to dst one chunk at a time. Every chunk is written
// in full before the next one is read. An empty src performs no writes.
func (c *Client) sendChunks(dst io.Writer, src io.Reader, remote net.Addr) (int64, error) {
	buf := make([]byte, c.chunkSize)
	var total int64

	for {
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if err := writeFull(dst, buf[:n]); err != nil {
				return total, &TransportError{Op: "write", Addr: addrString(remote), Err: err}
			}
			total += int64(n)
		}

		switch readErr {
		case nil:
		case io.EOF, io.ErrUnexpectedEOF:
			return total, nil
		default:
			return total, fmt.Errorf("failed to read local data: %w", readErr)
		}
	}
}

// writeFull writes all of p, resending the unsent remainder after a short
// write.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// receive copies the data connection to dst until end of stream.
func (c *Client) receive(dst io.Writer, dataConn net.Conn) (int64, error) {
	src := ratelimit.NewReader(dataConn, c.limiter)
	buf := make([]byte, c.chunkSize)
	var total int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := writeFull(dst, buf[:n]); err != nil {
				return total, fmt.Errorf("failed to write local data: %w", err)
			}
			total += int64(n)
		}

		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, &TransportError{Op: "read", Addr: addrString(dataConn.RemoteAddr()), Err: readErr}
		}
	}
}

func (c *Client) progressReader(op string, r io.Reader) io.Reader {
	if c.progress == nil {
		return r
	}
	return &ProgressReader{Reader: r, Callback: func(n int64) { c.progress(op, n) }}
}

func (c *Client) progressWriter(op string, w io.Writer) io.Writer {
	if c.progress == nil {
		return w
	}
	return &ProgressWriter{Writer: w, Callback: func(n int64) { c.progress(op, n) }}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
