package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankbot/internal/forms"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// VendorForm builds add_vendor_form, which collects the name of a vendor
// that does not exist yet.
func VendorForm(p Profile) (*forms.Form, error) {
	return forms.NewForm("add_vendor_form",
		[]forms.Slot{forms.Vendor},
		map[forms.Slot]forms.Validator{
			forms.Vendor: newVendor(p),
		},
	)
}

func newVendor(p Profile) forms.Validator {
	return func(ctx context.Context, value any, _ *types.Tracker) (forms.Result, error) {
		name, _ := value.(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return forms.Reject(forms.Vendor), nil
		}
		existing, err := p.Vendors(ctx)
		if err != nil {
			return forms.Result{}, err
		}
		// Inverted choice: a known vendor is the rejection.
		if _, known := (forms.Choice{Slot: forms.Vendor}).Match(name, existing); known {
			return forms.Reject(forms.Vendor).SayText("Such vendor already exists: " + name), nil
		}
		return forms.Accept(forms.Vendor, name), nil
	}
}

// AddVendor is action_add_vendor, which submits add_vendor_form.
func AddVendor(p Profile) Action {
	return Func("action_add_vendor", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		name := tr.SlotString(string(forms.Vendor))
		err := p.AddVendor(ctx, name)
		switch {
		case errors.Is(err, store.ErrVendorExists):
			d.UtterText("Such vendor already exists: " + name)
		case err != nil:
			return nil, err
		default:
			d.UtterText(name + " is added")
		}
		return forms.Clear(forms.Vendor), nil
	})
}

// ShowVendors is action_show_vendors.
func ShowVendors(p Profile) Action {
	return Func("action_show_vendors", func(ctx context.Context, d *types.Dispatcher, _ *types.Tracker) ([]types.Event, error) {
		names, err := p.Vendors(ctx)
		if err != nil {
			return nil, err
		}
		titled := make([]string, len(names))
		for i, n := range names {
			titled[i] = forms.TitleCase(n)
		}
		d.UtterText(fmt.Sprintf("Here are available vendors: %s", strings.Join(titled, ", ")))
		return nil, nil
	})
}
