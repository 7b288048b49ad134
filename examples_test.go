package ftp_test

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ftpdrive/ftp"
)

// ExampleDial demonstrates connecting and logging in.
func ExampleDial() {
	client, err := ftp.Dial("127.0.0.1:21",
		ftp.WithTimeout(10*time.Second),
		ftp.WithResponseHandler(func(r *ftp.Response) {
			fmt.Println(r)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()

	resp, err := client.Login("username", "password")
	if err != nil {
		log.Fatal(err)
	}

	if resp.Code == 230 {
		fmt.Println("Logged in")
	}
}

// ExampleDial_logging demonstrates debug logging of the control connection.
func ExampleDial_logging() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	client, err := ftp.Dial("127.0.0.1:21", ftp.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()
}

// ExampleClient_UploadFile demonstrates uploading from the storage root.
func ExampleClient_UploadFile() {
	client, err := ftp.Dial("127.0.0.1:21", ftp.WithStorageRoot("drive"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()

	if _, err := client.Login("username", "password"); err != nil {
		log.Fatal(err)
	}

	err = client.UploadFile("local.txt", "remote.txt")
	var nf *ftp.NotFoundError
	switch {
	case errors.As(err, &nf):
		fmt.Printf("No such local file: %s\n", nf.Path)
	case errors.Is(err, ftp.ErrUploadFailed):
		fmt.Println("Server rejected the upload")
	case err != nil:
		log.Fatal(err)
	default:
		fmt.Println("Upload complete")
	}
}

// ExampleClient_DownloadFile demonstrates downloading with progress tracking.
func ExampleClient_DownloadFile() {
	client, err := ftp.Dial("127.0.0.1:21",
		ftp.WithStorageRoot("drive"),
		ftp.WithProgress(func(op string, n int64) {
			fmt.Printf("%s: %d bytes\n", op, n)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()

	if _, err := client.Login("username", "password"); err != nil {
		log.Fatal(err)
	}

	if err := client.DownloadFile("remote.txt", "copy.txt"); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Download complete")
}

// ExampleClient_Store demonstrates uploading from any reader with a
// bandwidth limit.
func ExampleClient_Store() {
	client, err := ftp.Dial("127.0.0.1:21",
		ftp.WithBandwidthLimit(64*1024),
		ftp.WithChunkSize(4096),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()

	if _, err := client.Login("username", "password"); err != nil {
		log.Fatal(err)
	}

	if err := client.Store("notes.txt", strings.NewReader("hello world\n")); err != nil {
		log.Fatal(err)
	}
}

// ExampleClient_List demonstrates streaming a directory listing.
func ExampleClient_List() {
	client, err := ftp.Dial("127.0.0.1:21")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _, _ = client.Logout() }()

	if _, err := client.Login("username", "password"); err != nil {
		log.Fatal(err)
	}

	final, err := client.List(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(final.Message)
}

// ExampleKindOf demonstrates classifying errors.
func ExampleKindOf() {
	_, err := ftp.Dial("127.0.0.1:1")

	switch ftp.KindOf(err) {
	case ftp.KindTransport:
		fmt.Println("network problem")
	case ftp.KindProtocol:
		fmt.Println("server said no")
	default:
		fmt.Println(err)
	}
}
