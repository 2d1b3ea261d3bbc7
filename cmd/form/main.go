// Command form walks a user through the profile form in the terminal and
// submits it to the profile API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/AlexZx-05/Multiple-step-form/internal/client"
	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
	"github.com/AlexZx-05/Multiple-step-form/internal/form"
)

var (
	errQuit = errors.New("quit")
	errBack = errors.New("back")
)

var professions = []string{
	entity.ProfessionStudent,
	entity.ProfessionEntrepreneur,
	entity.ProfessionEmployee,
	entity.ProfessionFreelancer,
	entity.ProfessionUnemployed,
}

var plans = []string{entity.PlanFree, entity.PlanBasic, entity.PlanPremium}

type prompter struct {
	in  *bufio.Reader
	cli *client.Client
	ctl *form.Controller
}

func main() {
	_ = godotenv.Load()

	cli, err := client.New(os.Getenv("FORM_API_URL"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p := &prompter{
		in:  bufio.NewReader(os.Stdin),
		cli: cli,
		ctl: form.New(cli, cli, form.WithDebounce(300*time.Millisecond)),
	}
	if err := p.run(context.Background()); err != nil {
		if errors.Is(err, errQuit) {
			fmt.Println("Form discarded.")
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (p *prompter) run(ctx context.Context) error {
	for {
		step := p.ctl.Step()
		fmt.Printf("\n== Step %d of 4: %s ==\n", step, step)

		var err error
		switch step {
		case form.StepAccount:
			err = p.account(ctx)
		case form.StepProfession:
			err = p.profession()
		case form.StepLocation:
			err = p.location(ctx)
		case form.StepSummary:
			done, err := p.summary(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}
		if errors.Is(err, errBack) {
			continue
		}
		if err != nil {
			return err
		}

		if !p.ctl.CanNext() {
			fmt.Println("Some fields are missing or invalid, please fill them in again.")
			continue
		}
		if err := p.ctl.Next(); err != nil {
			return err
		}
	}
}

func (p *prompter) account(ctx context.Context) error {
	for {
		username, err := p.line("Username")
		if err != nil {
			return err
		}
		p.ctl.SetUsername(username)
		fmt.Print("Checking availability...")
		p.ctl.Wait()
		switch p.ctl.Availability() {
		case form.AvailabilityAvailable:
			fmt.Println(" available")
		case form.AvailabilityTaken:
			fmt.Println(" already taken")
			continue
		default:
			fmt.Println(" could not be checked")
			continue
		}
		break
	}

	current, err := p.secret("Current password")
	if err != nil {
		return err
	}
	_ = p.ctl.Set(entity.FieldCurrentPassword, current)

	next, err := p.secret("New password")
	if err != nil {
		return err
	}
	_ = p.ctl.Set(entity.FieldNewPassword, next)
	if _, label := p.ctl.PasswordStrength(); label != "" {
		fmt.Printf("Password strength: %s\n", label)
	}
	return nil
}

func (p *prompter) profession() error {
	choice, err := p.choose("Profession", professions)
	if err != nil {
		return err
	}
	if choice == "" {
		return p.back()
	}
	_ = p.ctl.Set(entity.FieldProfession, choice)

	company := ""
	if len(entity.RequiredByProfession(choice)) > 0 {
		if company, err = p.line("Company name"); err != nil {
			return err
		}
	}
	_ = p.ctl.Set(entity.FieldCompanyName, company)

	address, err := p.line("Address line 1")
	if err != nil {
		return err
	}
	return p.ctl.Set(entity.FieldAddressLine1, address)
}

func (p *prompter) location(ctx context.Context) error {
	countries, err := p.cli.Countries(ctx)
	if err != nil {
		return fmt.Errorf("load countries: %w", err)
	}
	country, err := p.choose("Country", names(countries))
	if err != nil {
		return err
	}
	if country == "" {
		return p.back()
	}
	_ = p.ctl.Set(entity.FieldCountry, country)

	states, err := p.cli.States(ctx, country)
	if err != nil {
		return fmt.Errorf("load states: %w", err)
	}
	state, err := p.choose("State", names(states))
	if err != nil {
		return err
	}
	if state == "" {
		return p.back()
	}
	_ = p.ctl.Set(entity.FieldState, state)

	cities, err := p.cli.Cities(ctx, state)
	if err != nil {
		return fmt.Errorf("load cities: %w", err)
	}
	city, err := p.choose("City", names(cities))
	if err != nil {
		return err
	}
	if city == "" {
		return p.back()
	}
	_ = p.ctl.Set(entity.FieldCity, city)

	plan, err := p.choose("Subscription plan", plans)
	if err != nil {
		return err
	}
	if plan == "" {
		return p.back()
	}
	_ = p.ctl.Set(entity.FieldSubscriptionPlan, plan)

	newsletter, err := p.line("Subscribe to the newsletter? [y/N]")
	if err != nil {
		return err
	}
	p.ctl.SetNewsletter(strings.EqualFold(newsletter, "y") || strings.EqualFold(newsletter, "yes"))

	photo, err := p.line("Profile photo path (optional)")
	if err != nil {
		return err
	}
	p.ctl.SetPhoto(photo)
	return nil
}

// summary returns true once the form has been stored.
func (p *prompter) summary(ctx context.Context) (bool, error) {
	s := p.ctl.Summary()
	fmt.Printf("Username:      %s\n", s.Username)
	fmt.Printf("Profession:    %s\n", s.Profession)
	if s.CompanyName != "" {
		fmt.Printf("Company:       %s\n", s.CompanyName)
	}
	fmt.Printf("Address:       %s\n", s.AddressLine1)
	fmt.Printf("Location:      %s, %s, %s\n", s.City, s.State, s.Country)
	fmt.Printf("Plan:          %s\n", s.SubscriptionPlan)
	fmt.Printf("Newsletter:    %t\n", s.Newsletter)
	if s.ProfilePhoto != "" {
		fmt.Printf("Photo:         %s\n", s.ProfilePhoto)
	}

	action, err := p.line("[s]ubmit, [b]ack or [q]uit")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(action) {
	case "s", "submit":
		fmt.Println("Submitting...")
		if err := p.ctl.Submit(ctx); err != nil {
			msg := p.ctl.SubmitMessage()
			if msg == "" {
				msg = err.Error()
			}
			fmt.Printf("Error: %s\n", msg)
			return false, nil
		}
		user := p.ctl.Submitted()
		fmt.Printf("Profile saved for %s (id %d).\n", user.Username, user.ID)
		return true, nil
	case "b", "back":
		return false, p.ctl.Back()
	case "q", "quit":
		return false, errQuit
	}
	return false, nil
}

func (p *prompter) back() error {
	if err := p.ctl.Back(); err != nil {
		return err
	}
	return errBack
}

func (p *prompter) line(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := p.in.ReadString('\n')
	if err != nil && text == "" {
		return "", errQuit
	}
	return strings.TrimSpace(text), nil
}

func (p *prompter) secret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.line(label)
	}
	fmt.Printf("%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// choose lists options and returns the picked one. An input of "<" returns
// an empty string so the caller can go back.
func (p *prompter) choose(label string, options []string) (string, error) {
	for {
		for i, opt := range options {
			fmt.Printf("  %d) %s\n", i+1, opt)
		}
		answer, err := p.line(label + " (number, or < to go back)")
		if err != nil {
			return "", err
		}
		if answer == "<" {
			return "", nil
		}
		var idx int
		if _, err := fmt.Sscanf(answer, "%d", &idx); err == nil && idx >= 1 && idx <= len(options) {
			return options[idx-1], nil
		}
		for _, opt := range options {
			if strings.EqualFold(opt, answer) {
				return opt, nil
			}
		}
		fmt.Println("Please pick one of the listed options.")
	}
}

func names(entries []entity.ReferenceEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
