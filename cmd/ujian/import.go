package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/ujian/internal/model"
	"github.com/pavelanni/ujian/internal/store"
)

// accessCodeAlphabet omits characters that are easy to confuse (0/O, 1/I/L).
const (
	accessCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	accessCodeLength   = 8
)

func generateAccessCode() (string, error) {
	// Bytes at or above limit are rejected so every symbol is equally likely.
	limit := 256 - 256%len(accessCodeAlphabet)
	code := make([]byte, 0, accessCodeLength)
	buf := make([]byte, accessCodeLength*2)
	for len(code) < accessCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, accessCodeAlphabet[int(b)%len(accessCodeAlphabet)])
			if len(code) == accessCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// importExamFile loads one exam definition file. Files already imported with
// the same content are skipped; changed files are refused so existing results
// keep pointing at the questions they were graded against. Generated access
// codes are written to out once and stored only as hashes.
func importExamFile(ctx context.Context, db *store.Store, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	hash := sha256sum(data)

	prev, err := db.GetImportedFile(ctx, path)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}
	if prev != nil {
		if prev.SHA256 == hash {
			slog.Info("exam file unchanged, skipping", "path", path, "exam_id", prev.ExamID)
			return nil
		}
		return fmt.Errorf("%s changed since it was imported as exam %d; import it under a new name", path, prev.ExamID)
	}

	var imp model.ExamImport
	if err := json.Unmarshal(data, &imp); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := imp.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	codes := make([]string, len(imp.Participants))
	for i := range imp.Participants {
		code, err := generateAccessCode()
		if err != nil {
			return fmt.Errorf("generate access code: %w", err)
		}
		h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash access code: %w", err)
		}
		codes[i] = code
		imp.Participants[i].AccessCodeHash = string(h)
	}

	res, err := db.ImportExamFile(ctx, imp, store.ImportedFile{Path: path, SHA256: hash})
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# exam %d: %s (%d questions)\n", res.ExamID, imp.Name, res.QuestionCount)
	fmt.Fprintln(tw, "PESERTA_ID\tEMAIL\tNAME\tKODE_AKSES")
	for i, p := range imp.Participants {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", res.ParticipantIDs[i], p.Email, p.Name, codes[i])
	}
	return tw.Flush()
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
