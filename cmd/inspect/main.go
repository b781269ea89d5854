// Command inspect dumps the Badger store for debugging. Message bodies are
// shown exactly as stored, ciphertext included; this tool never decrypts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"social-lab/domain"
	"social-lab/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "user:", "Prefix to scan (user:, msg:, conv:, vpnlog:)")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Summary"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Secondary indexes hold bare IDs, nothing to decode.
			if strings.HasPrefix(key, "idx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append([]string{key, summarize(key, v)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
}

func summarize(key string, val []byte) string {
	switch {
	case strings.HasPrefix(key, "user:"):
		var a domain.Account
		if err := json.Unmarshal(val, &a); err != nil {
			return fmt.Sprintf("unreadable row: %v", err)
		}
		verified := color.Red.Sprint("unverified")
		if a.EmailVerified {
			verified = color.Green.Sprint("verified")
		}
		mfa := "mfa:off"
		if a.MFAEnabled {
			mfa = "mfa:on"
		}
		return fmt.Sprintf("%s <%s> %s %s", a.Handle, a.Email, verified, mfa)

	case strings.HasPrefix(key, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return fmt.Sprintf("unreadable row: %v", err)
		}
		return fmt.Sprintf("%s -> %s ciphertext[%d bytes] at %s",
			m.SenderID, m.ReceiverID, len(m.Body), m.CreatedAt.Format("2006-01-02 15:04:05"))

	case strings.HasPrefix(key, "vpnlog:"):
		var l repositories.VPNLog
		if err := json.Unmarshal(val, &l); err != nil {
			return fmt.Sprintf("unreadable row: %v", err)
		}
		flag := color.Green.Sprint("clean")
		if l.IsVPN {
			flag = color.Red.Sprint("VPN")
		}
		return fmt.Sprintf("%s %s %s", l.IP, flag, l.Timestamp.Format("2006-01-02 15:04:05"))

	default:
		return string(val)
	}
}
