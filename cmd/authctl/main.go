// authctl is an operator tool for the file-backed credential store. It works
// directly on the data directory, so it is usable when the server is down or
// the admin account is locked out.
//
// Usage:
//
//	authctl [-d dir] list-users
//	authctl [-d dir] reset-password <username>
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/storemanager"
)

func getPassword(prompt string) ([]byte, error) {
	fmt.Println(prompt)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func openStore(dataDir string) (*storemanager.FileManager, error) {
	if dataDir == "" {
		d, err := filex.DefaultDataDir("authkeeper")
		if err != nil {
			return nil, err
		}
		dataDir = d
	}
	return storemanager.NewFileManager(dataDir)
}

func listUsers(ctx context.Context, store *storemanager.FileManager) error {
	list, err := store.Users().List(ctx)
	if err != nil {
		return err
	}

	for _, u := range list {
		fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.Role)
	}
	return nil
}

func resetPassword(ctx context.Context, store *storemanager.FileManager, username string) error {
	user, err := store.Users().GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", username, err)
	}

	password, err := getPassword("-Enter new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword("-Repeat new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	if !bytes.Equal(password, confirm) {
		return fmt.Errorf("passwords do not match")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	user.Hash, user.Salt = services.HashPassword(string(password))
	if err := store.Users().Update(ctx, user); err != nil {
		return err
	}

	// Force every session to log in again with the new password.
	if err := store.Sessions().DeleteForUser(ctx, user.ID); err != nil {
		return err
	}

	fmt.Printf("password updated for %s\n", username)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: authctl [-d dir] list-users | reset-password <username>\n")
	os.Exit(2)
}

func main() {

	var dataDir string
	flag.StringVar(&dataDir, "d", "", "data directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	ctx := context.Background()

	store, err := openStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch args[0] {
	case "list-users":
		err = listUsers(ctx, store)
	case "reset-password":
		if len(args) != 2 {
			usage()
		}
		err = resetPassword(ctx, store, args[1])
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
