package actions

import (
	"context"
	"errors"
	"fmt"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/parsing"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// Search types.
const (
	SearchSpend   = "spend"
	SearchDeposit = "deposit"
)

// SearchForm builds transaction_search_form. Searches for spending also
// ask which vendor the money went to.
func SearchForm(p Profile) (*forms.Form, error) {
	searchType := forms.Choice{
		Slot:       forms.SearchType,
		Candidates: forms.Static(SearchSpend, SearchDeposit),
		Display:    func(s string) string { return s },
	}
	vendors := vendorChoice(p)
	return forms.NewForm("transaction_search_form",
		[]forms.Slot{
			forms.ContinueForm,
			forms.SearchType,
			forms.Time,
			forms.ConfirmForm,
		},
		map[forms.Slot]forms.Validator{
			forms.ContinueForm: forms.ValidateContinue,
			forms.SearchType:   searchType.Validator(),
			forms.Time:         timeIntervalValidator,
			forms.VendorName:   vendors.Validator(),
			forms.ConfirmForm:  forms.ValidateConfirm,
		},
		forms.WithExplainer(forms.VendorName, explainVendors(p)),
		forms.WithNext(askForVendor),
	)
}

func vendorChoice(p Profile) forms.Choice {
	return forms.Choice{
		Slot: forms.VendorName,
		Candidates: func(ctx context.Context, _ *types.Tracker) ([]string, error) {
			return p.Vendors(ctx)
		},
		Fuzzy:  true,
		Reject: "utter_no_vendor_name",
	}
}

func explainVendors(p Profile) forms.Explainer {
	return func(ctx context.Context, _ any, _ *types.Tracker) (forms.Result, error) {
		names, err := p.Vendors(ctx)
		if err != nil {
			return forms.Result{}, err
		}
		for i, n := range names {
			names[i] = forms.TitleCase(n)
		}
		return forms.Result{}.SayText("I can search your spending at these vendors:" + formatted(names)), nil
	}
}

// askForVendor redirects a spending search to the vendor slot until one is
// known. A cancelled form is left alone.
func askForVendor(_ context.Context, tr *types.Tracker) []types.Event {
	if tr.SlotString(string(forms.SearchType)) != SearchSpend {
		return nil
	}
	if tr.SlotString(string(forms.VendorName)) != "" || tr.SlotString(string(forms.ConfirmForm)) == "no" {
		return nil
	}
	return []types.Event{forms.RequestedSlot.Set(string(forms.VendorName))}
}

// vendorPhrase renders the vendor part of search messages.
func vendorPhrase(vendor string) string {
	if vendor == "" {
		return ""
	}
	return " at " + forms.TitleCase(vendor)
}

// TransactionSearch is action_transaction_search, which submits
// transaction_search_form.
func TransactionSearch(p Profile) Action {
	return Func("action_transaction_search", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		events := resetForm(append([]forms.Slot{forms.SearchType, forms.VendorName}, timeSlots...)...)

		if !submitted(tr) {
			d.Utter("utter_transaction_search_cancelled", nil)
			return events, nil
		}

		searchType := tr.SlotString(string(forms.SearchType))
		vendor := tr.SlotString(string(forms.VendorName))
		q := store.SearchQuery{Deposit: searchType == SearchDeposit}
		if !q.Deposit {
			q.Vendor = vendor
		}
		var err error
		if s := tr.SlotString(string(forms.StartTime)); s != "" {
			if q.Start, err = parsing.ParseInstant(s); err != nil {
				return nil, fmt.Errorf("bad start_time: %w", err)
			}
		}
		if s := tr.SlotString(string(forms.EndTime)); s != "" {
			if q.End, err = parsing.ParseInstant(s); err != nil {
				return nil, fmt.Errorf("bad end_time: %w", err)
			}
		}

		sum, err := p.SearchTransactions(ctx, tr.SenderID, q)
		if errors.Is(err, store.ErrVendorNotFound) {
			d.Utter("utter_no_vendor_name", map[string]any{string(forms.VendorName): vendor})
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		logging.ActionsDebug("Search %s for %s: %d transactions, %.2f total", searchType, tr.SenderID, sum.Count, sum.Total)

		kwargs := map[string]any{
			"total":                          money(sum.Total),
			"numtransacts":                   sum.Count,
			string(forms.StartTimeFormatted): tr.SlotString(string(forms.StartTimeFormatted)),
			string(forms.EndTimeFormatted):   tr.SlotString(string(forms.EndTimeFormatted)),
			string(forms.VendorName):         vendorPhrase(q.Vendor),
		}
		d.Utter("utter_searching_"+searchType+"_transactions", kwargs)
		d.Utter("utter_found_"+searchType+"_transactions", kwargs)
		return events, nil
	})
}

// AskSearchConfirmation asks for zz_confirm_form of transaction_search_form,
// phrased after what is being searched.
func AskSearchConfirmation() Action {
	return Func("action_ask_transaction_search_form_zz_confirm_form", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		start := tr.SlotString(string(forms.StartTimeFormatted))
		end := tr.SlotString(string(forms.EndTimeFormatted))

		var text string
		switch tr.SlotString(string(forms.SearchType)) {
		case SearchDeposit:
			text = fmt.Sprintf("Do you want to search deposits made to your account between %s and %s?", start, end)
		default:
			text = fmt.Sprintf("Do you want to search for transactions%s between %s and %s?",
				vendorPhrase(tr.SlotString(string(forms.VendorName))), start, end)
		}
		d.UtterText(text, types.YesNoButtons...)
		return nil, nil
	})
}
