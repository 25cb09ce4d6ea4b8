package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/purrpal/purrpal/internal/ai"
	"github.com/purrpal/purrpal/internal/client"
	"github.com/purrpal/purrpal/internal/questionnaire"
	"github.com/purrpal/purrpal/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errAborted = errors.New("diagnosis aborted")

var (
	blockTag = regexp.MustCompile(`(?i)</?(p|div|li|ul|ol|br|h[1-6])\b[^>]*>`)
	anyTag   = regexp.MustCompile(`<[^>]*>`)
)

func newDiagnoseCommand(v *viper.Viper) *cobra.Command {
	var profile models.CatProfile
	var gender string

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Answer the symptom questionnaire and get a diagnosis",
		Long: `Walks through the symptom questions one by one.

Answer each question with y (ya), n (tidak), b to go back or q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(v)
			if c.Token() == "" {
				return client.ErrNotLoggedIn
			}

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			profile.Gender = models.Gender(gender)
			askProfile(in, out, &profile)

			s := questionnaire.NewSession(profile, c, questionnaire.WithAdvanceDelay(0))
			return runDiagnose(cmd.Context(), in, out, s)
		},
	}

	cmd.Flags().StringVar(&profile.Name, "name", "", "cat name")
	cmd.Flags().StringVar(&profile.Age, "age", "", "cat age, e.g. \"2 tahun\"")
	cmd.Flags().StringVar(&gender, "gender", "", "male or female")
	return cmd
}

func askProfile(in *bufio.Reader, out io.Writer, p *models.CatProfile) {
	if p.Name == "" {
		p.Name = prompt(in, out, "Nama kucing: ")
	}
	if p.Age == "" {
		p.Age = prompt(in, out, "Umur kucing: ")
	}
	for p.Gender == "" {
		switch strings.ToLower(prompt(in, out, "Jenis kelamin (male/female): ")) {
		case "male", "jantan", "m":
			p.Gender = models.GenderMale
		case "female", "betina", "f":
			p.Gender = models.GenderFemale
		case "":
			return
		}
	}
}

// runDiagnose asks every question in s, submits, and offers a resubmit after
// a failed attempt.
func runDiagnose(ctx context.Context, in *bufio.Reader, out io.Writer, s *questionnaire.Session) error {
	if err := askQuestions(in, out, s); err != nil {
		return err
	}

	for {
		fmt.Fprintln(out, "Menganalisis gejala...")
		result, err := s.Submit(ctx)
		if err == nil {
			printResult(out, result)
			return nil
		}

		var ce *ai.ClassifiedError
		if !errors.As(err, &ce) {
			ce = ai.Classify(err)
		}
		fmt.Fprintf(out, "\n%s\n", ce.Message)
		for _, sug := range ce.Suggestions {
			fmt.Fprintf(out, "  - %s\n", sug)
		}
		if ce.Kind == ai.KindValidation {
			return ce
		}

		answer := strings.ToLower(prompt(in, out, "Coba kirim ulang? (y/n): "))
		if answer != "y" && answer != "ya" {
			return ce
		}
	}
}

func askQuestions(in *bufio.Reader, out io.Writer, s *questionnaire.Session) error {
	total := len(s.Keys())
	for s.State() != questionnaire.StateReviewing {
		key := s.Current()
		fmt.Fprintf(out, "[%d/%d] %s (y/n/b/q): ", s.Index()+1, total, key.Question())

		line, readErr := in.ReadString('\n')
		if readErr != nil && line == "" {
			return errAborted
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "ya":
			err = s.Answer(key, true)
		case "n", "t", "tidak":
			err = s.Answer(key, false)
		case "b", "back", "kembali":
			s.GoToPrevious()
		case "q", "quit", "keluar":
			return errAborted
		default:
			fmt.Fprintln(out, "Jawab dengan y atau n.")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func printResult(out io.Writer, r *models.PredictionResult) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Diagnosis: %s\n", r.PredictedDisease)
	fmt.Fprintf(out, "Confidence: %s%%\n", strconv.FormatFloat(r.Confidence, 'f', 1, 64))
	if len(r.ActiveSymptoms) > 0 {
		fmt.Fprintf(out, "Gejala aktif: %s\n", strings.Join(r.ActiveSymptoms, ", "))
	}
	if text := plainText(r.DiagnosisHTML); text != "" {
		fmt.Fprintf(out, "\n%s\n", text)
	}
	if text := plainText(r.RecommendationsHTML); text != "" {
		fmt.Fprintf(out, "\nRekomendasi:\n%s\n", text)
	}
}

func plainText(html string) string {
	text := anyTag.ReplaceAllString(blockTag.ReplaceAllString(html, "\n"), "")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
