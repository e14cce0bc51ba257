package chainconfig

import (
	"testing"

	"github.com/pkg/errors"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		params *Params
		err    error
	}{
		{name: "duplicate mainnet", params: &MainnetParams, err: ErrDuplicateNet},
		{name: "duplicate testnet", params: &TestnetParams, err: ErrDuplicateNet},
		{name: "duplicate simnet", params: &SimnetParams, err: ErrDuplicateNet},
	}

	for _, test := range tests {
		err := Register(test.params)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: expected error %v but got %v", test.name, test.err, err)
		}
	}

	mocknet := SimnetParams
	mocknet.Name = "mocknet"
	err := Register(&mocknet)
	if err != nil {
		t.Fatalf("Register: %s", err)
	}
	params, err := ParamsByName("mocknet")
	if err != nil {
		t.Fatalf("ParamsByName: %s", err)
	}
	if params.Name != "mocknet" {
		t.Fatalf("TestRegister: expected mocknet but got %s", params.Name)
	}

	_, err = ParamsByName("nosuchnet")
	if !errors.Is(err, ErrUnknownNet) {
		t.Fatalf("TestRegister: expected ErrUnknownNet but got %v", err)
	}
}

func TestValidate(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &SimnetParams} {
		err := params.Validate()
		if err != nil {
			t.Errorf("%s: unexpectedly invalid: %s", params.Name, err)
		}
	}

	broken := SimnetParams
	broken.EpochLength = broken.VoteInterval + 1
	if broken.Validate() == nil {
		t.Fatalf("TestValidate: expected an error for an epoch that is not a multiple of the vote interval")
	}
}

func TestIsSeedValidator(t *testing.T) {
	if !SimnetParams.IsSeedValidator(SimnetParams.SeedValidatorKeys[1]) {
		t.Fatalf("TestIsSeedValidator: a seed key was not recognized")
	}
	if SimnetParams.IsSeedValidator([]byte{1, 2, 3}) {
		t.Fatalf("TestIsSeedValidator: an unknown key was recognized")
	}
	if SimnetParams.MilestonesPerEpoch() != 2 {
		t.Fatalf("TestIsSeedValidator: expected 2 milestones per epoch but got %d",
			SimnetParams.MilestonesPerEpoch())
	}
}
