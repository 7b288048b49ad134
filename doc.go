// Package ftp implements a minimal passive-mode FTP client.
//
// # Overview
//
// A Client owns one control connection and opens a fresh passive-mode data
// connection for every transfer. It supports:
//   - Plaintext login with USER and PASS
//   - Directory listings streamed as they arrive (LIST)
//   - Chunked uploads with full-write guarantees (STOR)
//   - Downloads (RETR)
//   - A local storage root that confines every local path
//   - Progress callbacks and an optional bandwidth limit
//   - Typed errors that tell transport, protocol, parse and not-found
//     failures apart
//
// # Basic Usage
//
// Connect and log in:
//
//	client, err := ftp.Dial("127.0.0.1:21", ftp.WithStorageRoot("drive"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout()
//
//	if _, err := client.Login("username", "password"); err != nil {
//	    log.Fatal(err)
//	}
//
// Login does not enforce reply codes. Register a response handler to see
// every reply the server sends, including the greeting:
//
//	ftp.WithResponseHandler(func(r *ftp.Response) {
//	    fmt.Println(r)
//	})
//
// # Storage Root
//
// UploadFile and DownloadFile resolve local paths against the storage root
// ("drive" unless WithStorageRoot says otherwise). Uploads require the root
// and the file to exist; downloads create the root on first use. A download
// only replaces the local file once the server confirms the transfer. A path
// that would leave the root is reported as a NotFoundError.
//
//	if err := client.UploadFile("local.txt", "remote.txt"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.DownloadFile("remote.txt", "copy.txt"); err != nil {
//	    log.Fatal(err)
//	}
//
// Store and Retrieve work on any io.Reader and io.Writer instead.
//
// # Progress Tracking
//
// Progress is reported per transfer with the running byte count:
//
//	client, err := ftp.Dial(addr, ftp.WithProgress(func(op string, n int64) {
//	    fmt.Printf("\r%s: %d bytes", op, n)
//	}))
//
// # Error Handling
//
// Use KindOf for a coarse classification or errors.As for the details:
//
//	if err := client.Store("file.txt", reader); err != nil {
//	    var pe *ftp.ProtocolError
//	    if errors.As(err, &pe) {
//	        fmt.Printf("Command: %s\n", pe.Command)
//	        fmt.Printf("Response: %s\n", pe.Response)
//	        fmt.Printf("Code: %d\n", pe.Code)
//	    }
//	    if errors.Is(err, ftp.ErrUploadFailed) {
//	        // the server rejected the completed upload
//	    }
//	}
package ftp
