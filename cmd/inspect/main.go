package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-core/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// Read-only dump of the store, one table row per record. Index rows
// are skipped: their values are plain ids with no detail to show.
func main() {
	dbPath := flag.String("db", "/tmp/chat-core/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Prefix to scan (empty scans everything)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			if strings.HasPrefix(rawKey, "idx:") || strings.HasPrefix(rawKey, "pair:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				entry, err := repositories.DescribeEntry(rawKey, v)
				if err != nil {
					fmt.Printf("Error decoding key %s: %v\n", rawKey, err)
					return nil
				}

				displayID := entry.EntityID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					rawKey,
					color.New(color.FgGreen).Render(entry.Kind),
					entry.Timestamp,
					displayID,
					entry.Detail,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Println(color.New(color.FgCyan).Render(fmt.Sprintf("%d records", count)))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(16 << 20)

	return badger.Open(opts)
}
