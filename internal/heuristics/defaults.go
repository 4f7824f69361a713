package heuristics

import "github.com/morozRed/nb2prod/internal/notebook"

var defaultDefinition = Definition{
	Categories: []CategoryRule{
		{
			Category: notebook.CategoryData,
			Patterns: []string{
				`\bread_(csv|excel|json|parquet|sql|table|pickle|feather)\b`,
				`\b(pd|pandas)\.DataFrame\b`,
				`\bdf\w*\b`,
				`\bdata(set|frame)?\b`,
				`\.(head|tail|info|describe|dropna|fillna|drop_duplicates|isnull|isna)\(`,
				`\.(merge|groupby|pivot_table|value_counts|sort_values)\(`,
				`\bload_\w+\(`,
				`\.(csv|xlsx|parquet|json)\b`,
			},
		},
		{
			Category: notebook.CategoryFeature,
			Patterns: []string{
				`\bfit_transform\(`,
				`\b(StandardScaler|MinMaxScaler|RobustScaler|Normalizer)\b`,
				`\b(OneHotEncoder|LabelEncoder|OrdinalEncoder|get_dummies)\b`,
				`\b(PolynomialFeatures|SelectKBest|PCA)\b`,
				`\bfeatures?\b`,
				`\btrain_test_split\b`,
				`\b(scaled|encoded)\w*\b`,
			},
		},
		{
			Category: notebook.CategoryModel,
			Patterns: []string{
				`\.fit\(`,
				`\.predict(_proba)?\(`,
				`\bmodel\w*\b`,
				`\bsklearn\.(linear_model|ensemble|tree|svm|neighbors|naive_bayes)\b`,
				`\w+(Regressor|Classifier|Regression)\(`,
				`\b(accuracy_score|mean_squared_error|r2_score|f1_score|classification_report|confusion_matrix)\b`,
				`\b(keras|torch|xgboost|lightgbm)\b`,
				`\bepochs?\b`,
			},
		},
		{
			Category: notebook.CategoryVisualization,
			Patterns: []string{
				`\bplt\.`,
				`\bsns\.`,
				`\.plot\(`,
				`\b(matplotlib|seaborn|plotly)\b`,
				`\b(fig|ax|axes)\b`,
				`\.(hist|scatter|boxplot|heatmap|imshow)\(`,
			},
		},
	},
	Names: []NameRule{
		{Pattern: `\bread_(csv|excel|json|parquet|sql|table|pickle|feather)\(`, Category: notebook.CategoryData, Name: "load_data"},
		{Pattern: `\.(dropna|fillna|drop_duplicates|astype)\(`, Category: notebook.CategoryData, Name: "clean_data"},
		{Pattern: `\.(merge|join)\(|\bpd\.concat\(`, Category: notebook.CategoryData, Name: "merge_data"},
		{Pattern: `\.(groupby|pivot_table|agg)\(`, Category: notebook.CategoryData, Name: "aggregate_data"},
		{Pattern: `\.to_(csv|parquet|pickle|json|excel)\(`, Name: "save_results"},
		{Pattern: `\btrain_test_split\(`, Name: "split_data"},
		{Pattern: `Scaler\(|\bnormalize\(`, Category: notebook.CategoryFeature, Name: "scale_features"},
		{Pattern: `\bget_dummies\(|Encoder\(`, Category: notebook.CategoryFeature, Name: "encode_features"},
		{Pattern: `\.fit\(`, Category: notebook.CategoryModel, Name: "train_model"},
		{Pattern: `\.predict(_proba)?\(`, Category: notebook.CategoryModel, Name: "make_predictions"},
		{Pattern: `\b(accuracy_score|mean_squared_error|r2_score|f1_score|classification_report|confusion_matrix)\(`, Category: notebook.CategoryModel, Name: "evaluate_model"},
		{Pattern: `\.(hist|scatter|boxplot|heatmap)\(|\bsns\.(histplot|distplot|kdeplot)\(`, Category: notebook.CategoryVisualization, Name: "plot_distribution"},
	},
	Types: []TypeRule{
		{Match: MatchCall, Pattern: `\b(pd|pandas)\.(read_\w+|DataFrame|concat|merge|get_dummies)\(`, Type: "pd.DataFrame"},
		{Match: MatchCall, Pattern: `\.(dropna|fillna|drop|drop_duplicates|copy|reset_index|sort_values|query|assign|merge)\(`, Type: "pd.DataFrame"},
		{Match: MatchCall, Pattern: `\b(np|numpy)\.(array|zeros|ones|arange|linspace|random\.\w+)\(`, Type: "np.ndarray"},
		{Match: MatchCall, Pattern: `\.(fit_transform|transform|predict|predict_proba)\(`, Type: "np.ndarray"},
		{Match: MatchCall, Pattern: `\b(accuracy_score|f1_score|precision_score|recall_score|r2_score|mean_squared_error|mean_absolute_error)\(`, Type: "float"},
		{Match: MatchCall, Pattern: `^\s*[rRbBuUfF]{0,2}["']`, Type: "str"},
		{Match: MatchCall, Pattern: `^\s*-?\d+\s*$`, Type: "int"},
		{Match: MatchCall, Pattern: `^\s*-?\d+\.\d*([eE]-?\d+)?\s*$`, Type: "float"},
		{Match: MatchCall, Pattern: `^\s*(True|False)\s*$`, Type: "bool"},
		{Match: MatchCall, Pattern: `^\s*\[`, Type: "List[Any]"},
		{Match: MatchCall, Pattern: `^\s*\{`, Type: "Dict[str, Any]"},

		{Match: MatchName, Pattern: `^df|dataframe`, Type: "pd.DataFrame"},
		{Match: MatchName, Pattern: `path|file`, Type: "str"},
		{Match: MatchName, Pattern: `data`, Type: "pd.DataFrame"},
		{Match: MatchName, Pattern: `^[xy](_|$)|array|matrix`, Type: "np.ndarray"},
		{Match: MatchName, Pattern: `name|title|label`, Type: "str"},
		{Match: MatchName, Pattern: `epoch|iteration|batch|size|count|num`, Type: "int"},
		{Match: MatchName, Pattern: `rate|alpha|beta|loss|score|accuracy`, Type: "float"},
		{Match: MatchName, Pattern: `model|estimator|scaler|encoder|transform`, Type: AnyType},
		{Match: MatchName, Pattern: `dict|config|params`, Type: "Dict[str, Any]"},
		{Match: MatchName, Pattern: `list|^.{2,}s$`, Type: "List[Any]"},
	},
	DefaultNames: map[notebook.Category]string{
		notebook.CategoryData:          "load_data",
		notebook.CategoryFeature:       "engineer_features",
		notebook.CategoryModel:         "train_model",
		notebook.CategoryVisualization: "create_visualization",
		notebook.CategoryOther:         "process_data",
	},
}

var builtin *Tables

func init() {
	t, err := Compile(defaultDefinition)
	if err != nil {
		panic("heuristics: invalid built-in tables: " + err.Error())
	}
	builtin = t
}

// Default returns the built-in tables.
func Default() *Tables {
	return builtin
}
