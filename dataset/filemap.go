package dataset

import (
	"fmt"
	"strings"

	"github.com/decibelcooper/htauplot/branches"
)

var primaryData = map[branches.FinalState]string{
	branches.Ditau:  "DataTau",
	branches.MuTau:  "DataMuon",
	branches.ETau:   "DataElectron",
	branches.EMu:    "DataEMu",
	branches.Dimuon: "DataMuon",
}

var dataStreams = map[string]string{
	"DataTau":      "Tau",
	"DataMuon":     "Muon",
	"DataElectron": "EGamma",
	"DataEMu":      "MuonEG",
}

// DatasetsFor returns the data stream of a final state and the data streams
// that must be skipped for it.
func DatasetsFor(fs branches.FinalState) (use string, reject []string, err error) {
	use, ok := primaryData[fs]
	if !ok {
		return "", nil, fmt.Errorf("no data stream for final state %v", fs)
	}
	for _, name := range []string{"DataTau", "DataMuon", "DataElectron", "DataEMu"} {
		if name != use {
			reject = append(reject, name)
		}
	}
	return use, reject, nil
}

// MCFileMap maps simulated processes to file patterns.
var MCFileMap = map[string]string{
	"ggH_TauTau":       "Signal/ggH_TauTau_Filtered*",
	"VBF_TauTau":       "Signal/VBF_TauTau_Filtered*",
	"WpH_TauTau":       "Signal/WplusH_TauTau_Filtered*",
	"WmH_TauTau":       "Signal/WminusH_TauTau_Filtered*",
	"ZH_TauTau":        "Signal/ZH_TauTau_Filtered*",
	"ttH_nonbb_TauTau": "WW/ttH_nonbb*",

	"DYJetsToLL_M10to50NLO": "DY/DYJetsToLL_M-10to50_NLO*",
	"DYJetsToLL_M-50_0JNLO": "DY/DY0JetsToLL_M-50_NLO*",
	"DYJetsToLL_M-50_1JNLO": "DY/DY1JetsToLL_M-50_NLO*",
	"DYJetsToLL_M-50_2JNLO": "DY/DY2JetsToLL_M-50_NLO*",

	"TTTo2L2Nu":         "TT/TTTo2L2Nu*",
	"TTToFullyHadronic": "TT/TTToFullyHadronic*",
	"TTToSemiLeptonic":  "TT/TTToSemiLeptonic*",

	"ST_s-channel_Tbar":  "ST/ST_s-channel_antitop*",
	"ST_t-channel_Tbar":  "ST/ST_t-channel_antitop*",
	"ST_TbarWplus_2L2Nu": "ST/ST_TbarWplus_2L2Nu*",
	"ST_TbarWplus_4Q":    "ST/ST_TbarWplus_4Q*",
	"ST_TbarWplus_LNu2Q": "ST/ST_TbarWplus_LNu2Q*",
	"ST_s-channel_T":     "ST/ST_s-channel_top*",
	"ST_t-channel_T":     "ST/ST_t-channel_top*",
	"ST_TWminus_2L2Nu":   "ST/ST_TWminus_2L2Nu*",
	"ST_TWminus_4Q":      "ST/ST_TWminus_4Q*",
	"ST_TWminus_LNu2Q":   "ST/ST_TWminus_LNu2Q*",

	"WJetsToLNu_0JNLO": "WJ/W0JetsToLNu_HTauTau*",
	"WJetsToLNu_1JNLO": "WJ/W1JetsToLNu_HTauTau*",
	"WJetsToLNu_2JNLO": "WJ/W2JetsToLNu_HTauTau*",

	"WWTo2L2Nu": "VV/WWTo2L2Nu*",
	"WWTo4Q":    "VV/WWTo4Q*",
	"WWToLNu2Q": "VV/WWToLNu2Q*",
	"WZTo3LNu":  "VV/WZTo3LNu*",
	"WZTo2L2Q":  "VV/WZTo2L2Q*",
	"WZToLNu2Q": "VV/WZToLNu2Q*",
	"ZZTo2L2Nu": "VV/ZZTo2L2Nu*",
	"ZZTo2L2Q":  "VV/ZZTo2L2Q*",
	"ZZTo2Nu2Q": "VV/ZZTo2Nu2Q*",
	"ZZTo4L":    "VV/ZZTo4L*",

	"VBF_WW": "WW/VBF_WW*",
	"ggH_WW": "WW/ggH_WW*",
}

// FileMap returns the file patterns of every dataset for an era such as
// "2022 EFG". Single run eras of 2022 read only that run; other eras read
// the whole year. 2023 adds the VBF parking stream.
func FileMap(era string) (map[string]string, error) {
	year, err := branches.Year(era)
	if err != nil {
		return nil, err
	}
	run := year
	if runs := strings.TrimSpace(strings.TrimPrefix(era, year)); year == "2022" && len(runs) == 1 {
		run += runs
	}

	m := make(map[string]string, len(MCFileMap)+len(dataStreams)+1)
	for k, v := range MCFileMap {
		m[k] = v
	}
	for name, stream := range dataStreams {
		m[name] = fmt.Sprintf("Data/%s_Run%s*", stream, run)
	}
	if year == "2023" {
		m["DataVBF"] = "Data/VBFParking_Run2023*"
	}
	return m, nil
}
