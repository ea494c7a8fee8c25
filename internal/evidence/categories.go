// Package evidence extracts structured, auditable evidence of specific
// phenomena (animal experimentation, ethics approvals) from document text.
//
// Extraction is deterministic keyword matching: a configurable table of
// named regular-expression categories is applied to text, yielding
// deduplicated keyword and sentence sets per category. No component here
// performs network I/O; everything is pure and side-effect-free.
package evidence

import "regexp"

// Category is one named pattern group whose matches in text constitute
// evidence for a phenomenon.
type Category struct {
	// Label identifies the category in extraction results.
	Label string
	// Pattern matches the phrases that constitute evidence.
	Pattern *regexp.Regexp
}

// SpeciesCategories detect mentions of laboratory animal species.
var SpeciesCategories = []Category{
	{"rat", regexp.MustCompile(`(?i)\brat(s)?\b`)},
	{"mouse", regexp.MustCompile(`(?i)\b(mouse|mice)\b`)},
	{"zebrafish", regexp.MustCompile(`(?i)\b(zebrafish|Danio\s+rerio)\b`)},
	{"rabbit", regexp.MustCompile(`(?i)\brabbit(s)?\b`)},
	{"pig", regexp.MustCompile(`(?i)\b(pig(s)?|porcine|swine)\b`)},
	{"chicken", regexp.MustCompile(`(?i)\b(chicken(s)?|Gallus\s+gallus|avian|poultry)\b`)},
	{"nonhuman_primate", regexp.MustCompile(`(?i)\b(macaque|marmoset|monkey|non[-\s]?human\s+primate|rhesus|cynomolgus)\b`)},
	{"dog", regexp.MustCompile(`(?i)\b(dog(s)?|canine|beagle)\b`)},
	{"cat", regexp.MustCompile(`(?i)\b(cat(s)?|feline)\b`)},
	{"sheep", regexp.MustCompile(`(?i)\b(sheep|ovine)\b`)},
	{"cow", regexp.MustCompile(`(?i)\b(cow(s)?|bovine|cattle)\b`)},
	{"horse", regexp.MustCompile(`(?i)\b(horse(s)?|equine)\b`)},
	{"fish", regexp.MustCompile(`(?i)\b(fish|teleost|salmon|trout)\b`)},
	{"frog", regexp.MustCompile(`(?i)\b(frog(s)?|Xenopus|amphibian)\b`)},
	{"bird", regexp.MustCompile(`(?i)\b(bird(s)?|avian|pigeon|sparrow)\b`)},
	{"reptile", regexp.MustCompile(`(?i)\b(reptile(s)?|lizard|snake|turtle)\b`)},
}

// StrainCategories detect common laboratory animal strains.
var StrainCategories = []Category{
	{"Sprague-Dawley", regexp.MustCompile(`(?i)\bSprague[-\s]?Dawley\b`)},
	{"Wistar", regexp.MustCompile(`(?i)\bWistar\b`)},
	{"Long-Evans", regexp.MustCompile(`(?i)\bLong[-\s]?Evans\b`)},
	{"C57BL/6", regexp.MustCompile(`(?i)\bC57BL/?6\b`)},
	{"BALB/c", regexp.MustCompile(`(?i)\bBALB/?c\b`)},
	{"rTg-DI", regexp.MustCompile(`(?i)\brTg[-\s]?DI\b`)},
	{"CD1", regexp.MustCompile(`(?i)\bCD1\b`)},
	{"ICR", regexp.MustCompile(`(?i)\bICR\b`)},
}

// AnimalStudyCategories detect procedures and context that constitute
// evidence of in vivo animal experimentation.
var AnimalStudyCategories = []Category{
	{"explicit_in_vivo", regexp.MustCompile(`(?i)\bin\s?vivo\b`)},
	{"in_vivo_study", regexp.MustCompile(`(?i)\bin\s?vivo\s+stud(?:y|ies)\b`)},
	{"in_vivo_experiment", regexp.MustCompile(`(?i)\bin\s?vivo\s+experiment(s)?\b`)},
	{"in_vivo_model", regexp.MustCompile(`(?i)\bin\s?vivo\s+model(s)?\b`)},
	{"anesthesia", regexp.MustCompile(`(?i)\banesthet(i[sz]ed|ia|ic)\b`)},
	{"euthanasia", regexp.MustCompile(`(?i)\b(euthanis|euthaniz|sacrific|killed)\w*\b`)},
	{"injections", regexp.MustCompile(`(?i)\b(intraperitoneal|i\.p\.|intravenous|i\.v\.|subcutaneous|s\.c\.|intramuscular|i\.m\.|intracerebral|i\.c\.|intracranial|intrahippocampal|intrastriatal|intraventricular)\s+injection\b`)},
	{"surgery", regexp.MustCompile(`(?i)\b(surgery|surgical|stereotaxic|stereotactic|craniotomy|perfusion|transplantation|implantation|catheterization|cannulation|tracheotomy|laparotomy|thoracotomy)\b`)},
	{"behavioral_tests", regexp.MustCompile(`(?i)\b(Morris\s+water\s+maze|open\s+field|elevated\s+plus\s+maze|rotarod|T\s?maze|radial\s+arm\s+maze|novel\s+object\s+recognition|fear\s+conditioning|passive\s+avoidance|active\s+avoidance|social\s+interaction|prepulse\s+inhibition|startle\s+response|grip\s+strength|balance\s+beam|wire\s+hanging)\b`)},
	{"physiological", regexp.MustCompile(`(?i)\b(blood\s+pressure|heart\s+rate|respiratory\s+rate|body\s+temperature|weight\s+gain|weight\s+loss|food\s+intake|water\s+intake|urine\s+output|glucose\s+level|insulin\s+level|cholesterol|triglycerides|cytokines|inflammatory\s+markers)\s+(measurement|monitoring|assessment|analysis)\b`)},
	{"sampling", regexp.MustCompile(`(?i)\b(cerebrospinal\s+fluid|CSF|blood\s+collection|tail\s+vein|cardiac\s+puncture|orbital\s+bleeding|jugular\s+vein|carotid\s+artery|femoral\s+vein|saphenous\s+vein|urine\s+collection|fecal\s+collection|tissue\s+biopsy|organ\s+removal|brain\s+extraction|liver\s+extraction|kidney\s+extraction|spleen\s+extraction|lung\s+extraction|heart\s+extraction)\b`)},
	{"husbandry", regexp.MustCompile(`(?i)\b(housed|housing|cage|caging|temperature[-\s]controlled|humidity[-\s]controlled|12[-\s]?h\s+light|12[-\s]?h\s+dark|light[-\s]cycle|dark[-\s]cycle|bedding|enrichment|social\s+isolation|group\s+housed|single\s+housed|pair\s+housed)\b`)},
	{"ethics", regexp.MustCompile(`(?i)\b(IACUC|ARRIVE|Institutional\s+Animal\s+Care|ethics\s+committee|animal\s+care\s+and\s+use|animal\s+welfare|3R|replacement|reduction|refinement|animal\s+protocol|animal\s+approval|ethical\s+approval|regulatory\s+compliance)\b`)},
	{"experimental_design", regexp.MustCompile(`(?i)\b(randomized|randomization|blinded|double[-\s]blind|single[-\s]blind|control\s+group|treatment\s+group|sham\s+control|vehicle\s+control|baseline|post[-\s]treatment|pre[-\s]treatment|follow[-\s]up|longitudinal|cross[-\s]sectional|cohort|intervention)\b`)},
	{"disease_models", regexp.MustCompile(`(?i)\b(disease\s+model|animal\s+model|transgenic|knockout|knock[-\s]in|overexpression|mutant|mutagenesis|carcinogen|tumor\s+induction|infection\s+model|injury\s+model|trauma\s+model|stroke\s+model|diabetes\s+model|obesity\s+model|hypertension\s+model|asthma\s+model|arthritis\s+model|depression\s+model|anxiety\s+model|Alzheimer\s+model|Parkinson\s+model|Huntington\s+model|ALS\s+model)\b`)},
	{"drug_administration", regexp.MustCompile(`(?i)\b(drug\s+administration|dosing|mg/kg|μg/kg|ng/kg|μmol/kg|nmol/kg|oral\s+administration|gavage|intraperitoneal\s+injection|intravenous\s+injection|subcutaneous\s+injection|intramuscular\s+injection|topical\s+application|inhalation|intranasal|chronic\s+treatment|acute\s+treatment|repeated\s+dosing|single\s+dose|multiple\s+doses)\b`)},
	{"imaging", regexp.MustCompile(`(?i)\b(MRI|fMRI|PET|ultrasound|X[-\s]ray|radiography|confocal|bioluminescence|fluorescence\s+imaging|live\s+imaging|real[-\s]time\s+imaging|telemetry|implanted\s+sensor|wireless\s+monitoring|video\s+tracking|movement\s+tracking|activity\s+monitoring)\b`)},
	{"tissue_analysis", regexp.MustCompile(`(?i)\b(histology|histological|histopathology|immunohistochemistry|IHC|immunofluorescence|Western\s+blot|qPCR|RT[-\s]PCR|RNA\s+sequencing|DNA\s+sequencing|microarray|proteomics|metabolomics|transcriptomics|ELISA|flow\s+cytometry|FACS|electron\s+microscopy|TEM|SEM)\b`)},
}

// EthicsCategories detect statements of ethical approval, oversight and
// animal welfare compliance.
var EthicsCategories = []Category{
	{"ethics_committee", regexp.MustCompile(`(?i)\b(ethics\s+committee|institutional\s+review\s+board|IRB|ethical\s+committee|research\s+ethics\s+committee|REC|animal\s+ethics\s+committee|AEC)\b`)},
	{"animal_care", regexp.MustCompile(`(?i)\b(animal\s+care\s+and\s+use\s+committee|ACUC|IACUC|institutional\s+animal\s+care\s+and\s+use\s+committee|animal\s+welfare\s+committee|AWC)\b`)},
	{"institutional_approval", regexp.MustCompile(`(?i)\b(institutional\s+approval|university\s+approval|faculty\s+approval|department\s+approval|institute\s+approval|center\s+approval)\b`)},
	{"guidelines", regexp.MustCompile(`(?i)\b(NIH\s+Guide|ARRIVE|3R|replacement|reduction|refinement|animal\s+welfare|welfare\s+guidelines|ethical\s+guidelines|research\s+guidelines)\b`)},
	{"regulations", regexp.MustCompile(`(?i)\b(regulations|regulatory\s+compliance|compliance|ethical\s+standards|protocol|ethical\s+protocol|animal\s+protocol)\b`)},
	{"approval", regexp.MustCompile(`(?i)\b(approved|approval|permission|authorized|authorization|consent|informed\s+consent|ethical\s+approval|ethical\s+permission)\b`)},
	{"declaration", regexp.MustCompile(`(?i)\b(conducted\s+in\s+accordance|in\s+accordance\s+with|following\s+the|according\s+to|compliant\s+with|adhering\s+to|following\s+guidelines|ethical\s+principles)\b`)},
	{"ethical_conduct", regexp.MustCompile(`(?i)\b(ethical\s+conduct|ethical\s+standards|ethical\s+principles|ethical\s+practices|ethical\s+considerations|ethical\s+requirements)\b`)},
	{"animal_welfare", regexp.MustCompile(`(?i)\b(animal\s+welfare|welfare\s+of\s+animals|humane\s+treatment|humane\s+care|animal\s+rights|animal\s+protection|welfare\s+considerations)\b`)},
	{"minimize_suffering", regexp.MustCompile(`(?i)\b(minimize\s+suffering|reduce\s+pain|alleviate\s+distress|prevent\s+suffering|minimize\s+stress|reduce\s+discomfort|humane\s+endpoints)\b`)},
	{"institution_mention", regexp.MustCompile(`(?i)\b(university|institute|center|faculty|department|school|college|hospital|medical\s+center|research\s+center|laboratory|lab)\b`)},
}
