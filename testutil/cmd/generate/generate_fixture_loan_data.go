// Command generate produces fixture data for load-testing the lending
// database: members, catalog items, and loan histories with realistic
// return behavior. The output is CSV per table, suited for COPY with
// dropped indexes, plus an optional JSON-lines file of the loans for
// import tooling that prefers JSON.
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/biblioline/lending-ledger-go/ledger"
)

const (
	tenThousand     = 10000
	hundredThousand = tenThousand * 10

	// NumMembers / NumItems / NumLoans - adapt these as needed.
	//
	// WARNING
	//
	// 10 Million fixture loans create multi-GB CSV files which are mounted
	// into a Docker volume. The generation itself should take less than a
	// minute; importing from CSV with dropped indexes a couple of minutes.
	NumMembers = 1 * tenThousand
	NumItems   = 5 * tenThousand
	NumLoans   = 10 * hundredThousand

	// WriteJSONLFileEnabled determines whether the loans are additionally
	// written as JSON lines.
	WriteJSONLFileEnabled = false

	OutputDir        = "testutil/fixtures" // The directory to put the fixture data into - should be fine as is.
	MembersCSVFile   = "members.csv"
	ItemsCSVFile     = "items.csv"
	LoansCSVFile     = "loans.csv"
	LoansJSONLFile   = "loans.jsonl"
	copiesPerItemMax = 5
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type loanRecord struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"member_id"`
	ItemID     string  `json:"item_id"`
	LoanDate   string  `json:"loan_date"`
	DueDate    string  `json:"due_date"`
	ReturnDate *string `json:"return_date"`
	Penalty    int64   `json:"penalty"`
}

func main() {
	if err := generateFixtureData(); err != nil {
		panic(fmt.Sprintf("Error generating fixture data: %v\n", err))
	}
}

func generateFixtureData() error {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	outputDir := filepath.Join(projectRoot, OutputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	memberIDs, err := generateMembers(outputDir)
	if err != nil {
		return err
	}

	itemIDs, err := generateItems(outputDir)
	if err != nil {
		return err
	}

	if err := generateLoans(outputDir, memberIDs, itemIDs); err != nil {
		return err
	}

	fmt.Printf("Successfully generated %d members, %d items and %d loans in %s\n",
		NumMembers, NumItems, NumLoans, outputDir)

	return nil
}

func generateMembers(outputDir string) ([]uuid.UUID, error) {
	csvWriter, closeFile, err := createCSVWriter(filepath.Join(outputDir, MembersCSVFile))
	if err != nil {
		return nil, err
	}
	defer closeFile()

	registeredAt := time.Unix(0, 0).UTC()
	memberIDs := make([]uuid.UUID, NumMembers)

	for i := range NumMembers {
		memberID, _ := uuid.NewV7()
		memberIDs[i] = memberID
		registeredAt = registeredAt.Add(time.Minute)

		record := []string{
			memberID.String(),
			fmt.Sprintf("Member %06d", i),
			fmt.Sprintf("member%06d@example.org", i),
			registeredAt.Format(time.RFC3339Nano),
		}

		if err := csvWriter.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write member record: %w", err)
		}
	}

	return memberIDs, nil
}

func generateItems(outputDir string) ([]uuid.UUID, error) {
	csvWriter, closeFile, err := createCSVWriter(filepath.Join(outputDir, ItemsCSVFile))
	if err != nil {
		return nil, err
	}
	defer closeFile()

	// Sample catalog data, cycled over all generated items.
	samples := []struct {
		Title    string
		Author   string
		Category string
	}{
		{"Learning Domain-Driven Design", "Vlad Khononov", "software"},
		{"Domain-Driven Design", "Eric Evans", "software"},
		{"Microservices Patterns", "Chris Richardson", "software"},
		{"Building Microservices", "Sam Newman", "software"},
		{"Head First Design Patterns", "Eric Freeman", "software"},
	}

	itemIDs := make([]uuid.UUID, NumItems)

	for i := range NumItems {
		itemID, _ := uuid.NewV7()
		itemIDs[i] = itemID
		sample := samples[i%len(samples)]
		totalCopies := rand.IntN(copiesPerItemMax) + 1

		record := []string{
			itemID.String(),
			fmt.Sprintf("%s (copy set %d)", sample.Title, i),
			sample.Author,
			sample.Category,
			fmt.Sprintf("%d", totalCopies),
			fmt.Sprintf("%d", totalCopies),
		}

		if err := csvWriter.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write item record: %w", err)
		}
	}

	return itemIDs, nil
}

func generateLoans(outputDir string, memberIDs []uuid.UUID, itemIDs []uuid.UUID) error {
	csvWriter, closeCSV, err := createCSVWriter(filepath.Join(outputDir, LoansCSVFile))
	if err != nil {
		return err
	}
	defer closeCSV()

	var jsonlFile *os.File
	if WriteJSONLFileEnabled {
		jsonlFile, err = os.Create(filepath.Join(outputDir, LoansJSONLFile))
		if err != nil {
			return fmt.Errorf("failed to create JSONL file: %w", err)
		}
		defer func() { _ = jsonlFile.Close() }()
	}

	fakeClock := time.Unix(0, 0).UTC()

	for range NumLoans {
		loanID, _ := uuid.NewV7()
		memberID := memberIDs[rand.IntN(len(memberIDs))]
		itemID := itemIDs[rand.IntN(len(itemIDs))]

		fakeClock = fakeClock.Add(time.Duration(rand.IntN(3600)) * time.Second)
		loanDate := fakeClock
		dueDate := ledger.DueDateFor(loanDate)

		record := loanRecord{
			ID:       loanID.String(),
			MemberID: memberID.String(),
			ItemID:   itemID.String(),
			LoanDate: loanDate.Format(time.RFC3339Nano),
			DueDate:  dueDate.Format(time.RFC3339Nano),
		}

		// Weighted return behavior: most loans come back on time, some
		// come back late with a penalty, some are still out.
		switch action := rand.IntN(100); {
		case action < 60: // returned on time
			returnDate := loanDate.Add(time.Duration(rand.IntN(14*24)) * time.Hour)
			formatted := returnDate.Format(time.RFC3339Nano)
			record.ReturnDate = &formatted

		case action < 80: // returned late
			returnDate := dueDate.Add(time.Duration(rand.IntN(30*24)+1) * time.Hour)
			formatted := returnDate.Format(time.RFC3339Nano)
			record.ReturnDate = &formatted
			record.Penalty = ledger.PenaltyFor(dueDate, returnDate)

		default: // still out
		}

		returnDateCSV := ""
		if record.ReturnDate != nil {
			returnDateCSV = *record.ReturnDate
		}

		csvRecord := []string{
			record.ID,
			record.MemberID,
			record.ItemID,
			record.LoanDate,
			record.DueDate,
			returnDateCSV,
			fmt.Sprintf("%d", record.Penalty),
		}

		if err := csvWriter.Write(csvRecord); err != nil {
			return fmt.Errorf("failed to write loan record: %w", err)
		}

		if WriteJSONLFileEnabled {
			line, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal loan record: %w", err)
			}

			if _, err := jsonlFile.Write(append(line, '\n')); err != nil {
				return fmt.Errorf("failed to write JSONL record: %w", err)
			}
		}
	}

	return nil
}

func createCSVWriter(path string) (*csv.Writer, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	csvWriter := csv.NewWriter(file)
	closeFile := func() {
		csvWriter.Flush()
		_ = file.Close()
	}

	return csvWriter, closeFile, nil
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (no go.mod found)")
}
