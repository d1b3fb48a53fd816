package branches

// Trigger paths, by data-taking year and final state.
const (
	IsoMu24       Branch = "HLT_IsoMu24"
	IsoMu27       Branch = "HLT_IsoMu27"
	MuTauCross    Branch = "HLT_IsoMu20_eta2p1_LooseDeepTauPFTauHPS27_eta2p1_CrossL1"
	Ele32         Branch = "HLT_Ele32_WPTight_Gsf"
	Ele35         Branch = "HLT_Ele35_WPTight_Gsf"
	ETauCross     Branch = "HLT_Ele24_eta2p1_WPTight_Gsf_LooseDeepTauPFTauHPS30_eta2p1_CrossL1"
	Mu8Ele23      Branch = "HLT_Mu8_TrkIsoVVL_Ele23_CaloIdL_TrackIdL_IsoVL_DZ"
	Mu23Ele12     Branch = "HLT_Mu23_TrkIsoVVL_Ele12_CaloIdL_TrackIdL_IsoVL"
	DoubleTau     Branch = "HLT_DoubleMediumDeepTauPFTauHPS35_L2NN_eta2p1"
	DoubleTauVBF  Branch = "HLT_VBF_DoubleMediumDeepTauPFTauHPS20_eta2p1"
	DoubleTauJet  Branch = "HLT_DoubleMediumDeepTauPFTauHPS30_L2NN_eta2p1_PFJet60"
	VBFDoubleJets Branch = "HLT_DoublePFJets40_Mass500_MediumDeepTauPFTauHPS45_L2NN_MediumDeepTauPFTauHPS20_eta2p1"
)

var triggers = map[string]map[FinalState][]Branch{
	"2022": {
		Ditau:  {DoubleTau, DoubleTauJet, DoubleTauVBF},
		MuTau:  {IsoMu24, IsoMu27, MuTauCross},
		ETau:   {Ele32, Ele35, ETauCross},
		EMu:    {Mu8Ele23, Mu23Ele12},
		Dimuon: {IsoMu24},
	},
	"2023": {
		Ditau:  {DoubleTau, DoubleTauJet, VBFDoubleJets},
		MuTau:  {IsoMu24, IsoMu27, MuTauCross},
		ETau:   {Ele32, Ele35, ETauCross},
		EMu:    {Mu8Ele23, Mu23Ele12},
		Dimuon: {IsoMu24},
	},
}
